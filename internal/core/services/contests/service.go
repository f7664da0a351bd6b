package contests

import "context"

// IContestService surfaces upcoming contests: on demand for the
// /contests command and proactively as start-time reminders.
type IContestService interface {
	// ListUpcoming renders the upcoming contest calendar as one message.
	ListUpcoming(ctx context.Context) (string, error)

	// RemindForever announces contests approaching their start time until
	// ctx is cancelled.
	RemindForever(ctx context.Context)
}
