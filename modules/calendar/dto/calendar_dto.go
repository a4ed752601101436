package dto

// ConnectionResponse describes the user's provider connection without
// exposing tokens.
type ConnectionResponse struct {
	Provider      string `json:"provider"`
	CalendarEmail string `json:"calendar_email"`
	ConnectedAt   string `json:"connected_at"`
}

// GoogleEventTime is the provider's event boundary: dateTime for timed
// events, date for all-day ones.
type GoogleEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type GoogleAttendee struct {
	Email string `json:"email"`
}

type GoogleEvent struct {
	ID               string           `json:"id,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	Start            *GoogleEventTime `json:"start,omitempty"`
	End              *GoogleEventTime `json:"end,omitempty"`
	Recurrence       []string         `json:"recurrence,omitempty"`
	RecurringEventID string           `json:"recurringEventId,omitempty"`
	OriginalStart    *GoogleEventTime `json:"originalStartTime,omitempty"`
	Attendees        []GoogleAttendee `json:"attendees,omitempty"`
	Status           string           `json:"status,omitempty"`
}

type GoogleEventList struct {
	Items         []GoogleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}
