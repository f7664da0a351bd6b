package domain

import "time"

// MaxVerificationAttempts bounds the re-check schedule: 20 checks spaced
// 30s apart cover the 10 minute proof window.
const MaxVerificationAttempts = 19

const VerificationWindow = 10 * time.Minute

// PendingVerification is the sign-on state machine record. A chat user
// claims a handle and must submit anything to ProblemID within the window
// to prove control of the account.
type PendingVerification struct {
	UserID    int64  `db:"user_id"`
	Handle    string `db:"handle"`
	ProblemID string `db:"problem_id"`
	ChatID    int64  `db:"chat_id"`
	MessageID int64  `db:"message_id"`
	Attempts  int    `db:"attempts"`
}

// HandleBinding links a verified chat user to their Codeforces handle.
type HandleBinding struct {
	UserID int64  `db:"user_id"`
	Handle string `db:"handle"`
}
