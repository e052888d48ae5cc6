package gcal

import (
	"context"
	"fmt"
)

// CalendarInfo represents a Google Calendar
type CalendarInfo struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"access_role"`
}

// ListCalendars returns all calendars the user has access to
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	pageToken := ""

	for {
		call := c.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}

		for _, item := range list.Items {
			if item == nil {
				continue
			}
			calendars = append(calendars, CalendarInfo{
				ID:         item.Id,
				Summary:    item.Summary,
				Primary:    item.Primary,
				AccessRole: item.AccessRole,
			})
		}

		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	return calendars, nil
}
