package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
)

var _ secondary.Notifier = &Bot{}

// Bot sends through the Telegram bot HTTP API. All text goes out as HTML
// with link previews disabled, matching the group's message style.
type Bot struct {
	baseURL    string
	httpClient *http.Client
	logger     primary.Logger
}

func NewBot(cfg *config.TelegramConfig, logger primary.Logger) *Bot {
	return &Bot{
		baseURL:    cfg.APIBaseURL + "/bot" + cfg.Token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (b *Bot) call(ctx context.Context, method string, params url.Values) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, b.baseURL+"/"+method,
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode telegram %s response: %w", method, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram %s: %s", method, result.Description)
	}
	return nil
}

func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.call(ctx, "sendMessage", url.Values{
		"chat_id":                  {strconv.FormatInt(chatID, 10)},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	})
}

func (b *Bot) SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error {
	return b.call(ctx, "sendMessage", url.Values{
		"chat_id":                     {strconv.FormatInt(chatID, 10)},
		"text":                        {text},
		"parse_mode":                  {"HTML"},
		"disable_web_page_preview":    {"true"},
		"reply_to_message_id":         {strconv.FormatInt(replyTo, 10)},
		"allow_sending_without_reply": {"true"},
	})
}

func (b *Bot) SendSticker(ctx context.Context, chatID int64, sticker string) error {
	return b.call(ctx, "sendSticker", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"sticker": {sticker},
	})
}

func (b *Bot) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return b.call(ctx, "sendChatAction", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"action":  {action},
	})
}

func (b *Bot) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	return b.call(ctx, "approveChatJoinRequest", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	})
}

func (b *Bot) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	return b.call(ctx, "declineChatJoinRequest", url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	})
}

// Command is one entry of the bot command menu.
type Command struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands publishes the command menu, done once at startup.
func (b *Bot) SetMyCommands(ctx context.Context, commands []Command) error {
	encoded, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("failed to marshal commands: %w", err)
	}
	return b.call(ctx, "setMyCommands", url.Values{
		"commands": {string(encoded)},
	})
}
