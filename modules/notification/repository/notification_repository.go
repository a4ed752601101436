package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *entity.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, notifID uuid.UUID) error
	GetUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
}

type notificationRepository struct {
	db database.IDatabase
}

func NewNotificationRepository(db database.IDatabase) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif *entity.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		notif.UserID, notif.Title, notif.Message, notif.Type,
	).Scan(&notif.ID, &notif.IsRead, &notif.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`
	var notifications []entity.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, notifID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
	`
	return r.db.ExecContext(ctx, query, notifID, userID)
}

// GetUserIDByEmail resolves an invitee email to a local account. Invitees
// without an account get no in-app notification.
func (r *notificationRepository) GetUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	query := `SELECT id FROM users WHERE email = $1`
	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query, email); err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, err
		}
		return uuid.Nil, err
	}
	return id, nil
}
