package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/entity"
)

type CalendarRepository interface {
	GetTokenByUser(ctx context.Context, userID uuid.UUID) (*entity.CalendarToken, error)
	UpdateToken(ctx context.Context, token *entity.CalendarToken) error
	DeactivateToken(ctx context.Context, userID uuid.UUID) error
}

type calendarRepository struct {
	db database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetTokenByUser(ctx context.Context, userID uuid.UUID) (*entity.CalendarToken, error) {
	query := `
		SELECT id, user_id, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_tokens
		WHERE user_id = $1 AND is_active = true
	`
	var token entity.CalendarToken
	if err := r.db.GetContext(ctx, &token, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewAppError(errors.ErrNotFound, "no calendar connected", err)
		}
		return nil, err
	}
	return &token, nil
}

func (r *calendarRepository) UpdateToken(ctx context.Context, token *entity.CalendarToken) error {
	query := `
		UPDATE calendar_tokens
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.db.ExecContext(ctx, query,
		token.AccessToken, token.RefreshToken, token.TokenExpiresAt, token.ID,
	)
}

// DeactivateToken soft deletes the connection; the provider-side grant is
// revoked separately by the service.
func (r *calendarRepository) DeactivateToken(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE calendar_tokens
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1
	`
	return r.db.ExecContext(ctx, query, userID)
}
