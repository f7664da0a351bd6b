package statusport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

const userKeyPrefix = "cfuser:"

var _ secondary.StatusRepository = &StatusRepository{}

// StatusRepository implements the StatusRepository interface with Redis.
// Each tracked handle maps to one JSON document holding its last observed
// submission sequence; documents are replaced wholesale, never patched.
type StatusRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewStatusRepository creates a new Redis status repository
func NewStatusRepository(redisClient *redis.Client, logger primary.Logger) *StatusRepository {
	return &StatusRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetHandles lists every tracked handle by scanning the key prefix.
func (r *StatusRepository) GetHandles(ctx context.Context) ([]string, error) {
	var cursor uint64
	var handles []string
	var err error

	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, userKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan user keys: %w", err)
		}
		for _, key := range keys {
			handles = append(handles, strings.TrimPrefix(key, userKeyPrefix))
		}
		if cursor == 0 {
			break
		}
	}

	return handles, nil
}

// GetStatus retrieves the stored snapshot for a handle.
func (r *StatusRepository) GetStatus(ctx context.Context, handle string) ([]domain.Submission, error) {
	userJSON, err := r.redisClient.Get(ctx, userKeyPrefix+handle).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("handle %s: %w", handle, errs.NotFound)
		}
		r.logger.Error("Failed to get user status", "handle", handle, "error", err)
		return nil, fmt.Errorf("failed to get user status: %w", err)
	}

	var user domain.TrackedUser
	if err := json.Unmarshal(userJSON, &user); err != nil {
		r.logger.Error("Failed to unmarshal user status", "handle", handle, "error", err)
		return nil, fmt.Errorf("failed to unmarshal user status: %w", err)
	}

	return user.Status, nil
}

// SaveStatus replaces the stored snapshot for a handle.
func (r *StatusRepository) SaveStatus(ctx context.Context, handle string, status []domain.Submission) error {
	user := domain.TrackedUser{
		Handle: handle,
		Status: status,
	}
	userJSON, err := json.Marshal(&user)
	if err != nil {
		r.logger.Error("Failed to marshal user status", "handle", handle, "error", err)
		return fmt.Errorf("failed to marshal user status: %w", err)
	}

	if err := r.redisClient.Set(ctx, userKeyPrefix+handle, userJSON, 0).Err(); err != nil {
		r.logger.Error("Failed to save user status", "handle", handle, "error", err)
		return fmt.Errorf("failed to save user status: %w", err)
	}

	return nil
}

// Remove stops tracking a handle.
func (r *StatusRepository) Remove(ctx context.Context, handle string) error {
	if err := r.redisClient.Del(ctx, userKeyPrefix+handle).Err(); err != nil {
		r.logger.Error("Failed to remove user", "handle", handle, "error", err)
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}
