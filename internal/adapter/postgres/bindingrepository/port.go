package bindingrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

var _ secondary.BindingRepository = &bindingRepo{}

type bindingRepo struct {
	db     *sqlx.DB
	logger primary.Logger
}

func New(db *sqlx.DB, logger primary.Logger) secondary.BindingRepository {
	return &bindingRepo{
		db:     db,
		logger: logger,
	}
}

func (r *bindingRepo) Save(ctx context.Context, binding *domain.HandleBinding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cfbot_handle (user_id, handle)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET handle = EXCLUDED.handle`,
		binding.UserID, binding.Handle,
	)
	if err != nil {
		r.logger.Error("Failed to save handle binding", "userId", binding.UserID, "error", err)
		return fmt.Errorf("failed to save handle binding: %w", err)
	}
	return nil
}

func (r *bindingRepo) GetByUserID(ctx context.Context, userID int64) (*domain.HandleBinding, error) {
	var binding domain.HandleBinding
	err := r.db.GetContext(ctx, &binding,
		`SELECT user_id, handle FROM cfbot_handle WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get handle binding", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to get handle binding: %w", err)
	}
	return &binding, nil
}

func (r *bindingRepo) GetByHandle(ctx context.Context, handle string) (*domain.HandleBinding, error) {
	var binding domain.HandleBinding
	err := r.db.GetContext(ctx, &binding,
		`SELECT user_id, handle FROM cfbot_handle WHERE handle = $1`, handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get handle binding", "handle", handle, "error", err)
		return nil, fmt.Errorf("failed to get handle binding: %w", err)
	}
	return &binding, nil
}

func (r *bindingRepo) GetAllHandles(ctx context.Context) ([]string, error) {
	var handles []string
	err := r.db.SelectContext(ctx, &handles,
		`SELECT handle FROM cfbot_handle ORDER BY user_id`)
	if err != nil {
		r.logger.Error("Failed to list handles", "error", err)
		return nil, fmt.Errorf("failed to list handles: %w", err)
	}
	return handles, nil
}

func (r *bindingRepo) Delete(ctx context.Context, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cfbot_handle WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to delete handle binding", "userId", userID, "error", err)
		return fmt.Errorf("failed to delete handle binding: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound
	}
	return nil
}
