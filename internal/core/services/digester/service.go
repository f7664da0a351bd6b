package digester

import (
	"context"

	"github.com/cfwarrior/tgbot/internal/domain"
)

// IDigesterService turns inbound Telegram updates into at most one bot
// response each: chat commands, join requests and member greetings.
type IDigesterService interface {
	Digest(ctx context.Context, update *domain.Update) error
}
