package model

import (
	"errors"
	"time"
)

// RoleAdmin is the only role the CMS knows
const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
)

// Admin is the single CMS operator account
type Admin struct {
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	LastLoginAt  time.Time `json:"lastLoginAt,omitempty"`
}
