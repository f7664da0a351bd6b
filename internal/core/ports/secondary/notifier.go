package secondary

import "context"

// Notifier delivers formatted messages to the group chat. Implementations
// are best-effort; the poll loop dispatches fire-and-forget.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendReply sends a message replying to another, falling back to a
	// plain send when the original is gone.
	SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error

	SendSticker(ctx context.Context, chatID int64, sticker string) error

	SendChatAction(ctx context.Context, chatID int64, action string) error

	// ApproveJoinRequest is an idempotent no-op upstream when no join
	// request is pending.
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error

	DeclineJoinRequest(ctx context.Context, chatID, userID int64) error
}
