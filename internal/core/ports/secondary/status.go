package secondary

import (
	"context"

	"github.com/cfwarrior/tgbot/internal/domain"
)

// StatusRepository persists the last observed submission sequence per
// tracked handle. Snapshots are replaced wholesale: a handle's stored
// status always reflects one complete successful poll.
type StatusRepository interface {
	// GetHandles lists every tracked handle.
	GetHandles(ctx context.Context) ([]string, error)

	// GetStatus returns the stored snapshot for a handle.
	GetStatus(ctx context.Context, handle string) ([]domain.Submission, error)

	// SaveStatus replaces the stored snapshot for a handle.
	SaveStatus(ctx context.Context, handle string, status []domain.Submission) error

	// Remove stops tracking a handle.
	Remove(ctx context.Context, handle string) error
}
