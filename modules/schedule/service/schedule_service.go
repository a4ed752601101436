package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/david-fold-studio/life-sphere-habits/core/cache"
	"github.com/david-fold-studio/life-sphere-habits/core/config"
	"github.com/david-fold-studio/life-sphere-habits/core/constants"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/core/utils"
	calendarService "github.com/david-fold-studio/life-sphere-habits/modules/calendar/service"
	notifService "github.com/david-fold-studio/life-sphere-habits/modules/notification/service"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/tasks"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/dto"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/repository"
)

const weekDateLayout = "2006-01-02"

type ScheduleService interface {
	WeekEvents(ctx context.Context, ownerID uuid.UUID, weekStart time.Time, sphere string) (*dto.WeekResponse, error)
	UpdateEvent(ctx context.Context, ownerID uuid.UUID, eventID string, req *dto.UpdateEventRequest) (*dto.UpdateEventResponse, error)
	DeleteEvent(ctx context.Context, ownerID uuid.UUID, eventID string) error
}

type scheduleService struct {
	repo        repository.ScheduleRepository
	calendarSvc calendarService.CalendarService
	cacheStore  cache.Cache
	notifSvc    notifService.NotificationService
	location    *time.Location

	merger   *engine.Merger
	pipeline *engine.Pipeline
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	calendarSvc calendarService.CalendarService,
	cacheStore cache.Cache,
	notifSvc notifService.NotificationService,
	location *time.Location,
) ScheduleService {
	if location == nil {
		location = time.UTC
	}

	s := &scheduleService{
		repo:        repo,
		calendarSvc: calendarSvc,
		cacheStore:  cacheStore,
		notifSvc:    notifSvc,
		location:    location,
	}

	throttle := 150 * time.Millisecond
	if cfg, ok := config.GetSafe(); ok {
		throttle = time.Duration(cfg.Engine.ThrottleMS) * time.Millisecond
	}

	s.merger = engine.NewMerger(localSourceFunc(s.cachedLocal), externalSourceFunc(s.cachedExternal))
	s.pipeline = engine.NewPipeline(
		s,
		engine.NewResolver(location),
		engine.NewOverlay(),
		throttle,
	)
	return s
}

// localSourceFunc / externalSourceFunc adapt service methods onto the
// merger's source interfaces.
type localSourceFunc func(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error)

func (f localSourceFunc) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error) {
	return f(ctx, ownerID)
}

type externalSourceFunc func(ctx context.Context, ownerID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error)

func (f externalSourceFunc) ListWindow(ctx context.Context, ownerID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error) {
	return f(ctx, ownerID, windowStart, windowEnd)
}

// WeekEvents returns the merged week view, read through the per-source
// cache halves. A non-empty sphere narrows the list to one life area,
// matched on the normalized key so "Deep Work" and "deep-work" agree.
func (s *scheduleService) WeekEvents(ctx context.Context, ownerID uuid.UUID, weekStart time.Time, sphere string) (*dto.WeekResponse, error) {
	weekStart = startOfDay(weekStart.In(s.location))
	events := s.merger.WeekEvents(ctx, ownerID, weekStart)

	if sphere != "" {
		key := utils.SphereKey(sphere)
		filtered := events[:0]
		for _, ev := range events {
			if utils.SphereKey(ev.Sphere) == key {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	return &dto.WeekResponse{
		WeekStart: weekStart.Format(weekDateLayout),
		Events:    events,
	}, nil
}

// UpdateEvent routes a finished gesture to the store that owns the event
// and invalidates the cached week halves on success.
func (s *scheduleService) UpdateEvent(ctx context.Context, ownerID uuid.UUID, eventID string, req *dto.UpdateEventRequest) (*dto.UpdateEventResponse, error) {
	weekStart, err := time.ParseInLocation(weekDateLayout, req.WeekStart, s.location)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "week_start must be YYYY-MM-DD", err)
	}
	if req.Day < 0 || req.Day > 6 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "day out of range", nil)
	}

	ev, err := s.loadEvent(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}

	commit := engine.CommitRequest{
		OwnerID: ownerID,
		Event:   *ev,
		Change: engine.TimeChange{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Day:       req.Day,
		},
		Scope:      engine.Scope(req.UpdateScope),
		Notify:     req.NotifyInvitees,
		Occurrence: weekStart.AddDate(0, 0, ev.Day),
	}
	if err := s.pipeline.Commit(ctx, commit); err != nil {
		return nil, err
	}

	if err := s.cacheStore.InvalidateOwner(ctx, ownerID.String()); err != nil {
		logger.Warn("ScheduleSvc:UpdateEvent:InvalidateCache:Error", "owner_id", ownerID, "error", err)
	}

	if ev.HasInvitees() && req.NotifyInvitees && s.notifSvc != nil {
		payload := tasks.EventUpdatePayload{
			EventName: ev.Name,
			OwnerID:   ownerID.String(),
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Day:       req.Day,
			Scope:     req.UpdateScope,
			Invitees:  ev.Invitees,
		}
		if err := s.notifSvc.EnqueueEventUpdate(ctx, payload); err != nil {
			logger.Warn("ScheduleSvc:UpdateEvent:EnqueueNotify:Error", "event_id", eventID, "error", err)
		}
	}

	scope := req.UpdateScope
	if scope == "" {
		scope = string(engine.ScopeSingle)
	}
	return &dto.UpdateEventResponse{
		ID:        eventID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Day:       req.Day,
		Scope:     scope,
	}, nil
}

// DeleteEvent removes a local event. External events have no local delete
// path; disconnecting the calendar is the only way to drop them.
func (s *scheduleService) DeleteEvent(ctx context.Context, ownerID uuid.UUID, eventID string) error {
	if !utils.IsUUID(eventID) {
		return errors.NewAppError(errors.ErrForbidden, "external events cannot be deleted here", nil)
	}
	id, err := uuid.Parse(eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "event id is not a UUID", err)
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.cacheStore.InvalidateOwner(ctx, ownerID.String()); err != nil {
		logger.Warn("ScheduleSvc:DeleteEvent:InvalidateCache:Error", "owner_id", ownerID, "error", err)
	}
	return nil
}

// Apply executes the shaped write from the commit pipeline against
// whichever store the resolution targets.
func (s *scheduleService) Apply(ctx context.Context, ownerID uuid.UUID, ev entity.ScheduledEvent, res engine.Resolution) error {
	if res.Local != nil {
		return s.repo.UpdateTimes(ctx, ownerID, *res.Local)
	}

	// Provider writes: for "following" the truncating patch must land
	// before the fork so a provider-side failure cannot duplicate the
	// remainder.
	if res.Patch != nil {
		if err := s.calendarSvc.PatchEvent(ctx, ownerID, *res.Patch); err != nil {
			return err
		}
	}
	if res.Exception != nil {
		if err := s.calendarSvc.CreateException(ctx, ownerID, *res.Exception); err != nil {
			return err
		}
	}
	if res.Fork != nil {
		if err := s.calendarSvc.CreateEvent(ctx, ownerID, *res.Fork); err != nil {
			return err
		}
	}
	return nil
}

// loadEvent fetches the committed state from whichever store owns the id.
func (s *scheduleService) loadEvent(ctx context.Context, ownerID uuid.UUID, eventID string) (*entity.ScheduledEvent, error) {
	if utils.IsUUID(eventID) {
		id, err := uuid.Parse(eventID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "event id is not a UUID", err)
		}
		return s.repo.GetByID(ctx, ownerID, id)
	}
	return s.calendarSvc.GetEvent(ctx, ownerID, eventID)
}

func (s *scheduleService) cachedLocal(ctx context.Context, ownerID uuid.UUID) ([]entity.ScheduledEvent, error) {
	// Local events are a week template, not dated rows, so the half is
	// cached under a constant window key.
	const window = "template"

	if payload, ok, err := s.cacheStore.GetWeek(ctx, "local", ownerID.String(), window); err == nil && ok {
		var events []entity.ScheduledEvent
		if err := json.Unmarshal(payload, &events); err == nil {
			return events, nil
		}
	}

	events, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(events); err == nil {
		if err := s.cacheStore.SetWeek(ctx, "local", ownerID.String(), window, payload, constants.CacheWeekTTL); err != nil {
			logger.Warn("ScheduleSvc:CachedLocal:Set:Error", "owner_id", ownerID, "error", err)
		}
	}
	return events, nil
}

func (s *scheduleService) cachedExternal(ctx context.Context, ownerID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error) {
	window := windowStart.Format(weekDateLayout)

	if payload, ok, err := s.cacheStore.GetWeek(ctx, "external", ownerID.String(), window); err == nil && ok {
		var events []entity.ScheduledEvent
		if err := json.Unmarshal(payload, &events); err == nil {
			return events, nil
		}
	}

	events, err := s.calendarSvc.ListWindow(ctx, ownerID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(events); err == nil {
		if err := s.cacheStore.SetWeek(ctx, "external", ownerID.String(), window, payload, constants.CacheWeekTTL); err != nil {
			logger.Warn("ScheduleSvc:CachedExternal:Set:Error", "owner_id", ownerID, "error", err)
		}
	}
	return events, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
