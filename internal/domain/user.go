package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusClosed    UserStatus = "closed"
)

type User struct {
	ID                uuid.UUID
	Email             string
	Name              string
	PasswordHash      string
	PreferredCurrency Currency
	Role              UserRole
	Status            UserStatus
	CreatedAt         time.Time
}
