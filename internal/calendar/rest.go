package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds connection settings for the calendar API.
type Config struct {
	BaseURL    string
	Token      string
	CalendarID string
	Timeout    time.Duration
}

// RESTClient talks to the calendar provider's REST API. It implements Client.
type RESTClient struct {
	config     Config
	httpClient *http.Client
}

// NewRESTClient creates a calendar API client with a bounded timeout.
func NewRESTClient(config Config) *RESTClient {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &RESTClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetEvent retrieves a single event. Returns (nil, nil) when the event does
// not exist or has been cancelled.
func (c *RESTClient) GetEvent(ctx context.Context, id string) (*Event, error) {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.config.CalendarID), url.PathEscape(id))

	var ev Event
	found, err := c.doJSON(ctx, http.MethodGet, path, nil, &ev)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &ev, nil
}

// CreateEvent creates an event and returns its provider-assigned ID.
func (c *RESTClient) CreateEvent(ctx context.Context, ev Event) (string, error) {
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(c.config.CalendarID))

	var created Event
	if _, err := c.doJSON(ctx, http.MethodPost, path, ev, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar returned an event without an id")
	}
	return created.ID, nil
}

// UpdateEvent rewrites an existing event.
func (c *RESTClient) UpdateEvent(ctx context.Context, id string, ev Event) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.config.CalendarID), url.PathEscape(id))

	found, err := c.doJSON(ctx, http.MethodPut, path, ev, nil)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("calendar event not found: %s", id)
	}
	return nil
}

// DeleteEvent removes an event. Deleting an already-absent event is not an
// error: callers routinely race external deletions.
func (c *RESTClient) DeleteEvent(ctx context.Context, id string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(c.config.CalendarID), url.PathEscape(id))

	_, err := c.doJSON(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// GetEventsInRange lists events overlapping [start, end).
func (c *RESTClient) GetEventsInRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	path := fmt.Sprintf("/calendars/%s/events?timeMin=%s&timeMax=%s",
		url.PathEscape(c.config.CalendarID),
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)),
	)

	var events []Event
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// TestConnection verifies the API is reachable and the credentials work.
func (c *RESTClient) TestConnection(ctx context.Context) error {
	path := fmt.Sprintf("/calendars/%s", url.PathEscape(c.config.CalendarID))

	found, err := c.doJSON(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("calendar not found: %s", c.config.CalendarID)
	}
	return nil
}

// doJSON performs a request and decodes the JSON response into out when
// non-nil. The bool result is false when the server answered 404.
func (c *RESTClient) doJSON(ctx context.Context, method, path string, body any, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("calendar API error (status %d): %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decoding response: %w", err)
		}
	}

	return true, nil
}
