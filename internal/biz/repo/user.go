package repo

import (
	"context"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// UserRepo is the user repository interface
// Finders return domain.ErrNotFound when no row matches
type UserRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByPlatformID(ctx context.Context, platformUserID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Save inserts a user with ID 0 (assigning the ID) or updates an existing one
	Save(ctx context.Context, user *domain.User) error
}

// RawEventRepo is the append-only audit log of inbound events
type RawEventRepo interface {
	Append(ctx context.Context, event *domain.RawEvent) error
}
