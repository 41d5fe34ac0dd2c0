package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studio-cms/internal/auth/config"
	"studio-cms/internal/auth/domain/model"

	"golang.org/x/crypto/bcrypt"
)

// AdminRepository holds the admin account configured through the environment.
// Plain passwords are hashed once at construction.
type AdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*model.Admin
}

// NewAdminRepository builds the repository from the auth config
func NewAdminRepository(cfg *config.Config) (*AdminRepository, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" {
		generated, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		hash = string(generated)
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	return &AdminRepository{
		admins: map[string]*model.Admin{
			cfg.AdminUsername: {
				Username:     cfg.AdminUsername,
				Role:         model.RoleAdmin,
				PasswordHash: hash,
			},
		},
	}, nil
}

// GetAdmin returns a copy of the named admin
func (r *AdminRepository) GetAdmin(_ context.Context, username string) (*model.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[username]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	out := *admin
	return &out, nil
}

func (r *AdminRepository) RecordLogin(_ context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[username]
	if !ok {
		return model.ErrAdminNotFound
	}
	admin.LastLoginAt = at
	return nil
}
