package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

type ScheduleRepository interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, eventID uuid.UUID) (*entity.ScheduledEvent, error)
	UpdateTimes(ctx context.Context, ownerID uuid.UUID, update engine.LocalUpdate) error
	Delete(ctx context.Context, ownerID uuid.UUID, eventID uuid.UUID) error
}

type scheduleRepository struct {
	db database.IDatabase
}

func NewScheduleRepository(db database.IDatabase) ScheduleRepository {
	return &scheduleRepository{db: db}
}

type scheduledEventRow struct {
	ID             uuid.UUID      `db:"id"`
	OwnerID        uuid.UUID      `db:"owner_id"`
	Name           string         `db:"name"`
	StartTime      string         `db:"start_time"`
	EndTime        string         `db:"end_time"`
	Day            int            `db:"day"`
	Sphere         string         `db:"sphere"`
	IsRecurring    bool           `db:"is_recurring"`
	Frequency      sql.NullString `db:"frequency"`
	RecurrenceRule sql.NullString `db:"recurrence_rule"`
	Invitees       pq.StringArray `db:"invitees"`
	UpdateType     sql.NullString `db:"update_type"`
}

func (r scheduledEventRow) toEntity() entity.ScheduledEvent {
	ev := entity.ScheduledEvent{
		ID:         r.ID.String(),
		Name:       r.Name,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Day:        r.Day,
		Sphere:     r.Sphere,
		Owned:      true,
		Provenance: entity.ProvenanceLocal,
		Invitees:   []string(r.Invitees),
	}
	if r.IsRecurring {
		ev.Recurrence = &entity.Recurrence{
			IsRecurring: true,
			Frequency:   entity.Frequency(r.Frequency.String),
			Rule:        r.RecurrenceRule.String,
		}
	}
	return ev
}

const selectColumns = `
	id, owner_id, name, start_time, end_time, day, sphere,
	is_recurring, frequency, recurrence_rule, invitees, update_type
`

// ListByOwner returns every event belonging to the owner. The week view is
// template-based, so there is no date filter here; recurring expansion
// happens at render time.
func (r *scheduleRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM scheduled_habits
		WHERE owner_id = $1
		ORDER BY day, start_time
	`
	var rows []scheduledEventRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, err
	}

	events := make([]entity.ScheduledEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}
	return events, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, ownerID uuid.UUID, eventID uuid.UUID) (*entity.ScheduledEvent, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM scheduled_habits
		WHERE id = $1 AND owner_id = $2
	`
	var row scheduledEventRow
	if err := r.db.GetContext(ctx, &row, query, eventID, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewAppError(errors.ErrNotFound, "event not found", err)
		}
		return nil, err
	}
	ev := row.toEntity()
	return &ev, nil
}

// UpdateTimes writes the shaped update for a local event. The scope marker
// is persisted alongside the new times so recurring expansion can tell a
// one-off move from a series change.
func (r *scheduleRepository) UpdateTimes(ctx context.Context, ownerID uuid.UUID, update engine.LocalUpdate) error {
	eventID, err := uuid.Parse(update.ID)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "event id is not a UUID", err)
	}

	query := `
		UPDATE scheduled_habits
		SET start_time = $1, end_time = $2, day = $3, update_type = $4, updated_at = NOW()
		WHERE id = $5 AND owner_id = $6
	`
	res, err := r.db.SQLx().ExecContext(ctx, query,
		update.StartTime, update.EndTime, update.Day, string(update.UpdateType), eventID, ownerID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, ownerID uuid.UUID, eventID uuid.UUID) error {
	query := `
		DELETE FROM scheduled_habits
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.SQLx().ExecContext(ctx, query, eventID, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}
	return nil
}
