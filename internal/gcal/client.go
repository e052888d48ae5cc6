package gcal

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar API client for one credential.
type Client struct {
	service *calendar.Service
}

// NewClient creates a client. Production callers go through OAuth.Calendar;
// tests pass option.WithEndpoint and option.WithHTTPClient.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{service: service}, nil
}

// TimeZone returns the IANA zone configured on the calendar.
func (c *Client) TimeZone(ctx context.Context, calendarID string) (string, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	cal, err := c.service.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get calendar: %w", err)
	}
	return cal.TimeZone, nil
}
