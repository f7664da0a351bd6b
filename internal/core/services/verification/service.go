package verification

import "context"

// IVerificationService runs the sign-on flow: a chat user claims a
// handle and proves control of it by submitting to a nominated problem
// within the verification window.
type IVerificationService interface {
	// Begin starts a verification for userID claiming handle. The proof
	// instructions are delivered as a reply to messageID in chatID.
	Begin(ctx context.Context, userID int64, handle string, chatID, messageID int64) error

	// Check runs one verification re-check for userID. Invoked by the
	// scheduled task callback, never directly by chat traffic.
	Check(ctx context.Context, userID int64) error
}
