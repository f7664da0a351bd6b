package delta

import "context"

// IDeltaService builds and delivers rating-change leaderboards for the
// most recent contest(s).
type IDeltaService interface {
	// SendDeltaReport computes the report and delivers it to chatID.
	SendDeltaReport(ctx context.Context, chatID int64) error
}
