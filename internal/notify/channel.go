package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Message is the unit the notification channel delivers. The engine only
// ever hands these over after its own commit; a failed send is logged and
// retried by the dispatcher, never propagated into a financial path.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

type Channel interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPChannel delivers messages over plain SMTP.
type SMTPChannel struct {
	cfg SMTPConfig
}

func NewSMTPChannel(cfg SMTPConfig) *SMTPChannel {
	return &SMTPChannel{cfg: cfg}
}

func (c *SMTPChannel) Send(_ context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(addr, auth, c.cfg.From, []string{msg.Recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}

// BreakerChannel wraps a channel with a circuit breaker so a misbehaving
// mail relay stops consuming dispatcher cycles while it is down.
type BreakerChannel struct {
	inner   Channel
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerChannel(inner Channel, name string) *BreakerChannel {
	return &BreakerChannel{
		inner: inner,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
	}
}

func (c *BreakerChannel) Send(ctx context.Context, msg Message) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.inner.Send(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}
