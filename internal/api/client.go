package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/tracklist/internal/model"
)

// GroceryStore covers the grocery resources of the list service.
type GroceryStore interface {
	ListGroceries(ctx context.Context) ([]json.RawMessage, error)
	CreateGrocery(ctx context.Context, name string) (Reply[model.GroceryItem], error)
	SaveGroceries(ctx context.Context, items []model.GroceryItem) error
	DeleteGroceries(ctx context.Context) error
	UpdateGrocery(ctx context.Context, name string, patch GroceryPatch) (Reply[model.GroceryItem], error)
	DeleteGrocery(ctx context.Context, name string) (Reply[model.GroceryItem], error)
	RecordPurchase(ctx context.Context, name string) (Reply[model.GroceryItem], error)
}

// TaskStore covers the task resources of the list service.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]json.RawMessage, error)
	CreateTask(ctx context.Context, name string, dueDate *string) (Reply[model.Task], error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
	DeleteTasks(ctx context.Context) error
	UpdateTask(ctx context.Context, id model.TaskID, patch TaskPatch) (Reply[model.Task], error)
	DeleteTask(ctx context.Context, id model.TaskID) (Reply[model.Task], error)
}

// Ensure Client implements both stores at compile time.
var (
	_ GroceryStore = (*Client)(nil)
	_ TaskStore    = (*Client)(nil)
)

// ErrNotArray is returned when a list endpoint answers with something other
// than a JSON array.
var ErrNotArray = errors.New("response is not an array")

// Client talks to the list service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultBaseURL is used when no api_base is configured.
	DefaultBaseURL   = "http://127.0.0.1:3000/api"
	defaultUserAgent = "tracklist/0.1"
)

// NewClient builds a Client rooted at apiBase. A zero timeout leaves requests
// unbounded.
func NewClient(apiBase string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// GroceryPatch carries the partial fields accepted by PUT /groceries/{name}.
type GroceryPatch struct {
	Expanded  *bool     `json:"expanded,omitempty"`
	Purchases *[]string `json:"purchases,omitempty"`
}

// TaskPatch carries the partial fields accepted by PUT /tasks/{id}.
type TaskPatch struct {
	Completed *bool `json:"completed,omitempty"`
}

// ListGroceries returns the raw persisted grocery records.
func (c *Client) ListGroceries(ctx context.Context) ([]json.RawMessage, error) {
	return c.list(ctx, "/groceries")
}

// CreateGrocery adds a grocery by name.
func (c *Client) CreateGrocery(ctx context.Context, name string) (Reply[model.GroceryItem], error) {
	var reply Reply[model.GroceryItem]
	err := c.do(ctx, http.MethodPost, "/groceries", map[string]string{"name": name}, &reply)
	return reply, err
}

// SaveGroceries replaces the whole grocery collection.
func (c *Client) SaveGroceries(ctx context.Context, items []model.GroceryItem) error {
	if items == nil {
		items = []model.GroceryItem{}
	}
	return c.do(ctx, http.MethodPut, "/groceries", items, nil)
}

// DeleteGroceries clears the grocery collection.
func (c *Client) DeleteGroceries(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/groceries", nil, nil)
}

// UpdateGrocery applies a partial update to one grocery.
func (c *Client) UpdateGrocery(ctx context.Context, name string, patch GroceryPatch) (Reply[model.GroceryItem], error) {
	var reply Reply[model.GroceryItem]
	err := c.do(ctx, http.MethodPut, "/groceries/"+url.PathEscape(name), patch, &reply)
	return reply, err
}

// DeleteGrocery removes one grocery. Servers may answer with the remaining
// collection or with nothing.
func (c *Client) DeleteGrocery(ctx context.Context, name string) (Reply[model.GroceryItem], error) {
	var reply Reply[model.GroceryItem]
	err := c.do(ctx, http.MethodDelete, "/groceries/"+url.PathEscape(name), nil, &reply)
	return reply, err
}

// RecordPurchase stamps a purchase for the named grocery.
func (c *Client) RecordPurchase(ctx context.Context, name string) (Reply[model.GroceryItem], error) {
	var reply Reply[model.GroceryItem]
	err := c.do(ctx, http.MethodPost, "/groceries/"+url.PathEscape(name)+"/purchase", nil, &reply)
	return reply, err
}

// ListTasks returns the raw persisted task records.
func (c *Client) ListTasks(ctx context.Context) ([]json.RawMessage, error) {
	return c.list(ctx, "/tasks")
}

// CreateTask adds a task. A nil dueDate is sent as null.
func (c *Client) CreateTask(ctx context.Context, name string, dueDate *string) (Reply[model.Task], error) {
	body := struct {
		Name    string  `json:"name"`
		DueDate *string `json:"dueDate"`
	}{Name: name, DueDate: dueDate}
	var reply Reply[model.Task]
	err := c.do(ctx, http.MethodPost, "/tasks", body, &reply)
	return reply, err
}

// SaveTasks replaces the whole task collection.
func (c *Client) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.do(ctx, http.MethodPut, "/tasks", tasks, nil)
}

// DeleteTasks clears the task collection.
func (c *Client) DeleteTasks(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/tasks", nil, nil)
}

// UpdateTask applies a partial update to one task.
func (c *Client) UpdateTask(ctx context.Context, id model.TaskID, patch TaskPatch) (Reply[model.Task], error) {
	var reply Reply[model.Task]
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id.String()), patch, &reply)
	return reply, err
}

// DeleteTask removes one task.
func (c *Client) DeleteTask(ctx context.Context, id model.TaskID) (Reply[model.Task], error) {
	var reply Reply[model.Task]
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id.String()), nil, &reply)
	return reply, err
}

func (c *Client) list(ctx context.Context, path string) ([]json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("GET %s: %w", path, ErrNotArray)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// do issues one request. path is relative to the base URL and already
// escaped. A nil dest discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(method, path, resp.StatusCode, payload)
	}
	if dest == nil {
		return nil
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
