package taskqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
)

var _ secondary.TaskScheduler = &Dispatcher{}

// Dispatcher implements the delayed-task capability by posting back into
// the service's own task endpoints at the scheduled time. Callbacks carry
// an HMAC-signed token so the task routes accept no unsolicited traffic.
//
// Delivery is best-effort: a crash between Schedule and the timer firing
// loses the task, which the verification flow tolerates (the user can
// sign on again).
type Dispatcher struct {
	callbackBaseURL string
	signingSecret   []byte
	httpClient      *http.Client
	logger          primary.Logger
}

func NewDispatcher(cfg *config.TaskQueueConfig, logger primary.Logger) *Dispatcher {
	return &Dispatcher{
		callbackBaseURL: cfg.CallbackBaseURL,
		signingSecret:   []byte(cfg.SigningSecret),
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		logger:          logger,
	}
}

type taskPayload struct {
	UserID int64 `json:"user_id"`
}

// Schedule arranges for kind to be delivered for userID at the given
// time. Returns once the task is accepted, not once it runs.
func (d *Dispatcher) Schedule(ctx context.Context, kind secondary.TaskKind, userID int64, at time.Time) error {
	token, err := d.signToken(kind, userID, at)
	if err != nil {
		return fmt.Errorf("failed to sign task token: %w", err)
	}

	body, err := json.Marshal(taskPayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	timer := time.NewTimer(time.Until(at))
	go func() {
		defer timer.Stop()
		<-timer.C
		d.deliver(string(kind), token, body)
	}()

	d.logger.Debug("Task scheduled", "kind", kind, "userId", userID, "at", at)
	return nil
}

func (d *Dispatcher) deliver(kind, token string, body []byte) {
	req, err := http.NewRequest(
		http.MethodPost,
		d.callbackBaseURL+"/tasks/"+kind,
		bytes.NewReader(body),
	)
	if err != nil {
		d.logger.Error("Failed to build task callback", "kind", kind, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Error("Task callback failed", "kind", kind, "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Error("Task callback rejected", "kind", kind, "status", resp.StatusCode)
	}
}

func (d *Dispatcher) signToken(kind secondary.TaskKind, userID int64, at time.Time) (string, error) {
	claims := jwt.MapClaims{
		"jti":     uuid.NewString(),
		"kind":    string(kind),
		"user_id": userID,
		"iat":     jwt.NewNumericDate(time.Now()),
		// Tokens outlive the delivery time by a grace period so slow
		// delivery does not invalidate the callback.
		"exp": jwt.NewNumericDate(at.Add(5 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.signingSecret)
}
