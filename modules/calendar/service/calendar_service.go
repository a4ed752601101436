package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/david-fold-studio/life-sphere-habits/core/config"
	"github.com/david-fold-studio/life-sphere-habits/core/constants"
	"github.com/david-fold-studio/life-sphere-habits/core/errors"
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/dto"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar/repository"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/engine"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule/entity"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleEventsAPI       = googleCalendarAPIBase + "/calendars/primary/events"
	googleRevokeAPI       = "https://oauth2.googleapis.com/revoke"
)

type CalendarService interface {
	// Week window, shaped for the merged grid view.
	ListWindow(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error)
	GetEvent(ctx context.Context, userID uuid.UUID, eventID string) (*entity.ScheduledEvent, error)

	// Shaped writes from the commit pipeline.
	PatchEvent(ctx context.Context, userID uuid.UUID, patch engine.ProviderPatch) error
	CreateException(ctx context.Context, userID uuid.UUID, exc engine.ProviderException) error
	CreateEvent(ctx context.Context, userID uuid.UUID, fork engine.ProviderFork) error
	DeleteEvent(ctx context.Context, userID uuid.UUID, eventID string) error

	// Connection management.
	GetConnection(ctx context.Context, userID uuid.UUID) (*dto.ConnectionResponse, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

type calendarService struct {
	repo     repository.CalendarRepository
	client   *http.Client
	location *time.Location
}

func NewCalendarService(repo repository.CalendarRepository, location *time.Location) CalendarService {
	if location == nil {
		location = time.UTC
	}
	return &calendarService{
		repo:     repo,
		client:   &http.Client{Timeout: 30 * time.Second},
		location: location,
	}
}

// ListWindow returns the user's provider events inside the window, mapped
// onto the week grid. All-day and cancelled events are skipped; the grid
// only renders timed entries.
func (s *calendarService) ListWindow(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) ([]entity.ScheduledEvent, error) {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("timeMin", windowStart.Format(time.RFC3339))
	params.Set("timeMax", windowEnd.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", "250")

	var items []dto.GoogleEvent
	pageToken := ""
	for {
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var page dto.GoogleEventList
		if err := s.getJSON(ctx, googleEventsAPI+"?"+params.Encode(), accessToken, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	events := make([]entity.ScheduledEvent, 0, len(items))
	for _, item := range items {
		ev, ok := s.toGridEvent(item, windowStart)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *calendarService) GetEvent(ctx context.Context, userID uuid.UUID, eventID string) (*entity.ScheduledEvent, error) {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	var item dto.GoogleEvent
	if err := s.getJSON(ctx, googleEventsAPI+"/"+url.PathEscape(eventID), accessToken, &item); err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrExternalProvider, "provider event has no usable start time", err)
	}
	weekStart := startOfWeek(start.In(s.location))

	ev, ok := s.toGridEvent(item, weekStart)
	if !ok {
		return nil, errors.NewAppError(errors.ErrNotFound, "event is not renderable on the grid", nil)
	}
	return &ev, nil
}

// PatchEvent patches times, the recurrence rule, or both on an existing
// provider event.
func (s *calendarService) PatchEvent(ctx context.Context, userID uuid.UUID, patch engine.ProviderPatch) error {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return err
	}

	body := dto.GoogleEvent{}
	if patch.TimesChange {
		body.Start = s.eventTime(patch.Start)
		body.End = s.eventTime(patch.End)
	}
	if patch.Recurrence != nil {
		body.Recurrence = patch.Recurrence
	}

	endpoint := fmt.Sprintf("%s/%s?sendUpdates=%s", googleEventsAPI, url.PathEscape(patch.EventID), patch.SendUpdates)
	return s.writeJSON(ctx, http.MethodPatch, endpoint, accessToken, body, nil)
}

// CreateException creates a detached instance of a recurring event,
// anchored to the parent by the original occurrence start.
func (s *calendarService) CreateException(ctx context.Context, userID uuid.UUID, exc engine.ProviderException) error {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return err
	}

	body := dto.GoogleEvent{
		RecurringEventID: exc.RecurringEventID,
		OriginalStart:    s.eventTime(exc.OriginalStart),
		Start:            s.eventTime(exc.Start),
		End:              s.eventTime(exc.End),
	}

	endpoint := fmt.Sprintf("%s?sendUpdates=%s", googleEventsAPI, exc.SendUpdates)
	return s.writeJSON(ctx, http.MethodPost, endpoint, accessToken, body, nil)
}

// CreateEvent creates a new series, used for the forked remainder of a
// "this and following" update.
func (s *calendarService) CreateEvent(ctx context.Context, userID uuid.UUID, fork engine.ProviderFork) error {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return err
	}

	body := dto.GoogleEvent{
		Summary:    fork.Summary,
		Start:      s.eventTime(fork.Start),
		End:        s.eventTime(fork.End),
		Recurrence: fork.Recurrence,
	}

	endpoint := fmt.Sprintf("%s?sendUpdates=%s", googleEventsAPI, fork.SendUpdates)
	return s.writeJSON(ctx, http.MethodPost, endpoint, accessToken, body, nil)
}

func (s *calendarService) DeleteEvent(ctx context.Context, userID uuid.UUID, eventID string) error {
	accessToken, err := s.ensureValidToken(ctx, userID)
	if err != nil {
		return err
	}

	endpoint := googleEventsAPI + "/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NewAppError(errors.ErrExternalProvider, "failed to delete provider event", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarSvc:DeleteEvent:APIError", "status", resp.StatusCode, "body", string(body))
		return errors.NewAppError(errors.ErrExternalProvider, fmt.Sprintf("provider error: %d", resp.StatusCode), nil)
	}
	return nil
}

func (s *calendarService) GetConnection(ctx context.Context, userID uuid.UUID) (*dto.ConnectionResponse, error) {
	token, err := s.repo.GetTokenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ConnectionResponse{
		Provider:      "google",
		CalendarEmail: token.CalendarEmail,
		ConnectedAt:   token.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Disconnect revokes the provider grant and deactivates the stored token.
// Revocation failure is logged but does not keep the local row active.
func (s *calendarService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	token, err := s.repo.GetTokenByUser(ctx, userID)
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Set("token", token.RefreshToken)
	resp, err := s.client.PostForm(googleRevokeAPI, data)
	if err != nil {
		logger.Warn("CalendarSvc:Disconnect:Revoke:Error", "user_id", userID, "error", err)
	} else {
		resp.Body.Close()
	}

	return s.repo.DeactivateToken(ctx, userID)
}

// ensureValidToken returns a fresh access token, refreshing through the
// OAuth token endpoint when the stored one is within five minutes of
// expiry. A refreshed token is written back so concurrent requests pick
// it up.
func (s *calendarService) ensureValidToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.repo.GetTokenByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if time.Now().Before(token.TokenExpiresAt.Add(-5 * time.Minute)) {
		return token.AccessToken, nil
	}

	logger.Info("CalendarSvc:EnsureValidToken:Refreshing", "user_id", userID)

	cfg, ok := config.GetSafe()
	if !ok {
		return "", errors.NewAppError(errors.ErrInternalServer, "config not loaded", nil)
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		Endpoint:     google.Endpoint,
	}

	refreshed, err := oauthConfig.TokenSource(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.TokenExpiresAt,
	}).Token()
	if err != nil {
		logger.Error("CalendarSvc:EnsureValidToken:Refresh:Error", "user_id", userID, "error", err)
		return "", errors.NewAppError(errors.ErrExternalProvider, "failed to refresh provider token", err)
	}

	token.AccessToken = refreshed.AccessToken
	token.TokenExpiresAt = refreshed.Expiry
	if refreshed.RefreshToken != "" {
		token.RefreshToken = refreshed.RefreshToken
	}
	if err := s.repo.UpdateToken(ctx, token); err != nil {
		logger.Error("CalendarSvc:EnsureValidToken:Persist:Error", "user_id", userID, "error", err)
	}

	return refreshed.AccessToken, nil
}

// toGridEvent maps a provider event onto the week grid. Events without a
// timed start (all-day), cancelled events, and events outside the rendered
// week are skipped.
func (s *calendarService) toGridEvent(item dto.GoogleEvent, weekStart time.Time) (entity.ScheduledEvent, bool) {
	if item.Status == "cancelled" || item.Start == nil || item.End == nil || item.Start.DateTime == "" {
		return entity.ScheduledEvent{}, false
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return entity.ScheduledEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return entity.ScheduledEvent{}, false
	}

	start = start.In(s.location)
	end = end.In(s.location)

	day := int(start.Sub(startOfDay(weekStart)).Hours() / 24)
	if day < 0 || day > 6 {
		return entity.ScheduledEvent{}, false
	}

	ev := entity.ScheduledEvent{
		ID:         item.ID,
		Name:       item.Summary,
		StartTime:  engine.FormatClock(start.Hour()*60 + start.Minute()),
		EndTime:    engine.FormatClock(end.Hour()*60 + end.Minute()),
		Day:        day,
		Sphere:     constants.SphereExternal,
		Owned:      false,
		Provenance: entity.ProvenanceExternal,
	}

	for _, att := range item.Attendees {
		ev.Invitees = append(ev.Invitees, att.Email)
	}
	if rule := firstRRule(item.Recurrence); rule != "" {
		ev.Recurrence = &entity.Recurrence{IsRecurring: true, Rule: rule}
	} else if item.RecurringEventID != "" {
		// A detached instance reads as recurring so scope prompts still fire.
		ev.Recurrence = &entity.Recurrence{IsRecurring: true}
	}
	return ev, true
}

func (s *calendarService) eventTime(t time.Time) *dto.GoogleEventTime {
	return &dto.GoogleEventTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: s.location.String(),
	}
}

func (s *calendarService) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NewAppError(errors.ErrExternalProvider, "provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.NewAppError(errors.ErrNotFound, "provider event not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarSvc:GetJSON:APIError", "status", resp.StatusCode, "body", string(body))
		return errors.NewAppError(errors.ErrExternalProvider, fmt.Sprintf("provider error: %d", resp.StatusCode), nil)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *calendarService) writeJSON(ctx context.Context, method, endpoint, accessToken string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NewAppError(errors.ErrExternalProvider, "provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarSvc:WriteJSON:APIError", "method", method, "status", resp.StatusCode, "body", string(respBody))
		return errors.NewAppError(errors.ErrExternalProvider, fmt.Sprintf("provider error: %d", resp.StatusCode), nil)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func firstRRule(recurrence []string) string {
	for _, line := range recurrence {
		if strings.HasPrefix(line, "RRULE:") {
			return line
		}
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	// Monday-based week.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

var _ engine.ExternalSource = CalendarService(nil)
