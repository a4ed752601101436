package entity

import (
	"time"

	"github.com/google/uuid"

	baseEntity "github.com/david-fold-studio/life-sphere-habits/core/entity"
)

// CalendarToken is a user's stored OAuth credential for the external
// calendar provider. One active row per user.
type CalendarToken struct {
	baseEntity.BaseEntity
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string    `db:"calendar_email" json:"calendar_email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}
