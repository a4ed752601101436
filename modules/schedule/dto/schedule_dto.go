package dto

import (
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

// UpdateEventRequest carries the terminal state of one finished drag or
// resize gesture. WeekStart anchors the edited occurrence so recurring
// updates can compute the exact date being moved.
type UpdateEventRequest struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Day            int    `json:"day"`
	UpdateScope    string `json:"update_scope,omitempty"` // single | following | series
	NotifyInvitees bool   `json:"notify_invitees,omitempty"`
	WeekStart      string `json:"week_start"` // YYYY-MM-DD, Monday of the rendered week
}

type UpdateEventResponse struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Day       int    `json:"day"`
	Scope     string `json:"scope"`
}

type WeekResponse struct {
	WeekStart string                  `json:"week_start"`
	Events    []entity.ScheduledEvent `json:"events"`
}
