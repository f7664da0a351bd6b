package secondary

import (
	"context"

	"github.com/cfwarrior/tgbot/internal/domain"
)

// SubmissionSource is the platform's public API: submission history,
// contests, rating changes, profiles.
type SubmissionSource interface {
	// GetStatus fetches the latest count submissions of a handle, most
	// recent first.
	GetStatus(ctx context.Context, handle string, count int) ([]domain.Submission, error)

	// GetContest resolves a single contest by id.
	GetContest(ctx context.Context, contestID int) (*domain.Contest, error)

	// GetContests lists contests, restricted to the given phases when any
	// are passed.
	GetContests(ctx context.Context, phases ...domain.ContestPhase) ([]domain.Contest, error)

	// GetRatingChanges fetches official post-contest rating changes.
	// Returns errs.RatingChangesUnavailable while unpublished.
	GetRatingChanges(ctx context.Context, contestID int) ([]domain.RatingChange, error)

	GetUser(ctx context.Context, handle string) (*domain.User, error)

	GetProblems(ctx context.Context) ([]domain.Problem, error)
}

// ContestCalendar lists upcoming contests across platforms.
type ContestCalendar interface {
	GetUpcomingContests(ctx context.Context) ([]domain.UpcomingContest, error)
}
