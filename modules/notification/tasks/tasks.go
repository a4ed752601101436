package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypeEventUpdate = "notification:event_update"

// EventUpdatePayload fans an event change out to its invitees in the
// background, off the commit path.
type EventUpdatePayload struct {
	EventName string   `json:"event_name"`
	OwnerID   string   `json:"owner_id"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Day       int      `json:"day"`
	Scope     string   `json:"scope"`
	Invitees  []string `json:"invitees"`
}

func NewEventUpdateTask(payload EventUpdatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEventUpdate, data, asynq.MaxRetry(3), asynq.Queue("notifications")), nil
}
