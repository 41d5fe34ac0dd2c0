package repository

import (
	"context"
	"time"

	"studio-cms/internal/auth/domain/model"
)

// AdminRepository looks up the admin accounts allowed to sign in
type AdminRepository interface {
	GetAdmin(ctx context.Context, username string) (*model.Admin, error)
	RecordLogin(ctx context.Context, username string, at time.Time) error
}
