package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	TimeZone    string
}

// Event is one listed calendar entry. All-day events keep their raw
// yyyy-MM-dd tokens in StartDate and EndDate and leave the times zero.
type Event struct {
	ID          string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	StartDate   string
	EndDate     string
}

// Duration is end minus start; zero for all-day events.
func (e Event) Duration() time.Duration {
	if e.AllDay || e.StartTime.IsZero() || e.EndTime.IsZero() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

func parseGoogleEvent(item *calendar.Event) (Event, error) {
	if item == nil || item.Start == nil || item.End == nil {
		return Event{}, fmt.Errorf("event is missing start or end")
	}

	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}

	// All-day events use Date instead of DateTime.
	if item.Start.DateTime == "" || item.End.DateTime == "" {
		if item.Start.Date == "" {
			return Event{}, fmt.Errorf("event datetime is missing")
		}
		event.AllDay = true
		event.StartDate = item.Start.Date
		event.EndDate = item.End.Date
		return event, nil
	}

	startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse start datetime: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse end datetime: %w", err)
	}
	event.StartTime = startTime
	event.EndTime = endTime
	return event, nil
}

// InsertEvent creates a new event and returns its ID
func (c *Client) InsertEvent(ctx context.Context, calendarID string, input EventInput) (string, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	created, err := c.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.Id, nil
}

// ListEvents returns expanded single events in [timeMin, timeMax) ordered by
// start time. query is Google's free-text filter; empty means no filter.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	var result []Event
	pageToken := ""

	for {
		call := c.service.Events.List(calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			ShowDeleted(false).
			OrderBy("startTime").
			Context(ctx)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events in range: %w", err)
		}

		for _, item := range events.Items {
			if item == nil || item.Status == "cancelled" {
				continue
			}

			event, parseErr := parseGoogleEvent(item)
			if parseErr != nil {
				// Skip malformed events rather than failing the whole request.
				continue
			}
			result = append(result, event)
		}

		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}

	return result, nil
}
