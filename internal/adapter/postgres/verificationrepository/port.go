package verificationrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
)

var _ secondary.VerificationRepository = &verificationRepo{}

type verificationRepo struct {
	db     *sqlx.DB
	logger primary.Logger
}

func New(db *sqlx.DB, logger primary.Logger) secondary.VerificationRepository {
	return &verificationRepo{
		db:     db,
		logger: logger,
	}
}

func (r *verificationRepo) Put(ctx context.Context, pending *domain.PendingVerification) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO cfbot_verification (user_id, handle, problem_id, chat_id, message_id, attempts)
		VALUES (:user_id, :handle, :problem_id, :chat_id, :message_id, :attempts)
		ON CONFLICT (user_id) DO UPDATE SET
			handle = EXCLUDED.handle,
			problem_id = EXCLUDED.problem_id,
			chat_id = EXCLUDED.chat_id,
			message_id = EXCLUDED.message_id,
			attempts = EXCLUDED.attempts`,
		pending,
	)
	if err != nil {
		r.logger.Error("Failed to store pending verification", "userId", pending.UserID, "error", err)
		return fmt.Errorf("failed to store pending verification: %w", err)
	}
	return nil
}

func (r *verificationRepo) Get(ctx context.Context, userID int64) (*domain.PendingVerification, error) {
	var pending domain.PendingVerification
	err := r.db.GetContext(ctx, &pending, `
		SELECT user_id, handle, problem_id, chat_id, message_id, attempts
		FROM cfbot_verification WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get pending verification", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to get pending verification: %w", err)
	}
	return &pending, nil
}

func (r *verificationRepo) IncrementAttempts(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cfbot_verification SET attempts = attempts + 1 WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to increment verification attempts", "userId", userID, "error", err)
		return fmt.Errorf("failed to increment verification attempts: %w", err)
	}
	return nil
}

func (r *verificationRepo) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cfbot_verification WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to delete pending verification", "userId", userID, "error", err)
		return fmt.Errorf("failed to delete pending verification: %w", err)
	}
	return nil
}
