package secondary

import (
	"context"
	"time"
)

type TaskKind string

const (
	TaskVerifyHandle       TaskKind = "cf_verification"
	TaskDeclineJoinRequest TaskKind = "decline_join_request"
)

// TaskScheduler is the delayed-task capability: run kind for userID at t.
// The verification state machine holds no timers of its own, every
// re-check arrives as a fresh callback through this interface.
type TaskScheduler interface {
	Schedule(ctx context.Context, kind TaskKind, userID int64, at time.Time) error
}
