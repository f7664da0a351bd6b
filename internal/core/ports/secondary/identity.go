package secondary

import (
	"context"

	"github.com/cfwarrior/tgbot/internal/domain"
)

// BindingRepository stores verified chat-user to handle bindings.
type BindingRepository interface {
	Save(ctx context.Context, binding *domain.HandleBinding) error
	GetByUserID(ctx context.Context, userID int64) (*domain.HandleBinding, error)
	GetByHandle(ctx context.Context, handle string) (*domain.HandleBinding, error)
	GetAllHandles(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID int64) error
}

// VerificationRepository stores pending sign-on verifications keyed by
// chat user id.
type VerificationRepository interface {
	Put(ctx context.Context, pending *domain.PendingVerification) error
	Get(ctx context.Context, userID int64) (*domain.PendingVerification, error)
	IncrementAttempts(ctx context.Context, userID int64) error
	Delete(ctx context.Context, userID int64) error
}
