package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/entity"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/repository"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification/tasks"
)

type NotificationService interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, notifID uuid.UUID) error

	// EnqueueEventUpdate schedules invitee fan-out in the background.
	EnqueueEventUpdate(ctx context.Context, payload tasks.EventUpdatePayload) error

	// HandleEventUpdateTask is the asynq handler for the fan-out task.
	HandleEventUpdateTask(ctx context.Context, task *asynq.Task) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	client *asynq.Client
}

func NewNotificationService(repo repository.NotificationRepository, client *asynq.Client) NotificationService {
	return &notificationService{repo: repo, client: client}
}

func (s *notificationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID uuid.UUID, notifID uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, notifID)
}

func (s *notificationService) EnqueueEventUpdate(ctx context.Context, payload tasks.EventUpdatePayload) error {
	if s.client == nil || len(payload.Invitees) == 0 {
		return nil
	}

	task, err := tasks.NewEventUpdateTask(payload)
	if err != nil {
		return err
	}

	info, err := s.client.EnqueueContext(ctx, task)
	if err != nil {
		logger.Error("NotifSvc:EnqueueEventUpdate:Error", "error", err)
		return err
	}
	logger.Info("NotifSvc:EnqueueEventUpdate:Queued", "task_id", info.ID, "invitees", len(payload.Invitees))
	return nil
}

// HandleEventUpdateTask creates one in-app notification per invitee with a
// local account. Unknown invitees are skipped, not retried.
func (s *notificationService) HandleEventUpdateTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.EventUpdatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal event update payload: %w", err)
	}

	message := fmt.Sprintf("'%s' was moved to %s-%s", payload.EventName, payload.StartTime, payload.EndTime)

	for _, email := range payload.Invitees {
		userID, err := s.repo.GetUserIDByEmail(ctx, email)
		if err != nil {
			logger.Warn("NotifSvc:HandleEventUpdateTask:UnknownInvitee", "email", email)
			continue
		}

		notif := &entity.Notification{
			UserID:  userID,
			Title:   "Event rescheduled",
			Message: message,
			Type:    "event_update",
		}
		if err := s.repo.Create(ctx, notif); err != nil {
			logger.Error("NotifSvc:HandleEventUpdateTask:Create:Error", "user_id", userID, "error", err)
			return err
		}
	}
	return nil
}
