// Package remote implements the HTTP client for the tracker server.
// All state-changing operations in the core go through the Store
// interface defined here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joescharf/bugfix/internal/models"
)

// Store is the remote persistence surface the core depends on.
type Store interface {
	ListBugs(ctx context.Context) ([]models.Bug, error)
	AddBug(ctx context.Context, req AddBugRequest) (models.Bug, error)
	UpdateBug(ctx context.Context, req UpdateBugRequest) (models.Bug, error)
	RemoveBug(ctx context.Context, bugID int64) error
	AssignUser(ctx context.Context, bugID, userID int64) error
	SearchBugs(ctx context.Context, term string) ([]models.Bug, error)
	ListCoders(ctx context.Context) ([]models.Coder, error)
	PushNotification(ctx context.Context, userID int64, message string) error
	PushNotificationToAll(ctx context.Context, message string) error
}

// AddBugRequest is the create payload. The dates carry the DD/MM/YYYY
// display form produced by the submission flow; the server normalizes
// them on the way in.
type AddBugRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       models.Status   `json:"status"`
	Category     models.Category `json:"category"`
	AssignedID   *int64          `json:"assignedId"`
	AssignedName string          `json:"assignedUsername"`
	Priority     int             `json:"priority"`
	Importance   int             `json:"importance"`
	CreationDate string          `json:"creationDate"`
	OpenDate     string          `json:"openDate"`
}

// UpdateBugRequest is the full-record update payload plus the derived
// dirty-description flag computed at save time.
type UpdateBugRequest struct {
	BugID              int64           `json:"bugId"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Status             models.Status   `json:"status"`
	Category           models.Category `json:"category"`
	AssignedID         *int64          `json:"assignedId"`
	AssignedName       string          `json:"assignedUsername"`
	Priority           int             `json:"priority"`
	Importance         int             `json:"importance"`
	CreationDate       models.Date     `json:"creationDate"`
	OpenDate           models.Date     `json:"openDate"`
	DescriptionChanged bool            `json:"isDescriptionChanged"`
}

// UpdateRequestFor builds an update payload from a working copy.
func UpdateRequestFor(b models.Bug, descriptionChanged bool) UpdateBugRequest {
	return UpdateBugRequest{
		BugID:              b.ID,
		Title:              b.Title,
		Description:        b.Description,
		Status:             b.Status,
		Category:           b.Category,
		AssignedID:         models.NullableID(b.AssignedID),
		AssignedName:       b.AssignedName,
		Priority:           b.Priority,
		Importance:         b.Importance,
		CreationDate:       b.CreationDate,
		OpenDate:           b.OpenDate,
		DescriptionChanged: descriptionChanged,
	}
}

// Client talks to the tracker server over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the tracker at baseURL.
func NewClient(baseURL string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient}
}

// envelope is the error shape the tracker uses for failures. The
// "error" field being present means failure regardless of HTTP status.
type envelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decode checks both the transport-level status and the body's error
// field, then unmarshals the body into out when provided.
func decode(resp *resty.Response, out any) error {
	body := bytes.TrimSpace(resp.Body())

	if len(body) > 0 && body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
			msg := env.Error
			if env.Message != "" {
				msg += ": " + env.Message
			}
			return &APIError{Status: resp.StatusCode(), Message: msg}
		}
	}

	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode tracker response: %w", err)
	}
	return nil
}

func (c *Client) ListBugs(ctx context.Context) ([]models.Bug, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/v1/bugs")
	if err != nil {
		return nil, &TransportError{Op: "list bugs", Err: err}
	}

	var bugs []models.Bug
	if err := decode(resp, &bugs); err != nil {
		return nil, err
	}
	return bugs, nil
}

func (c *Client) AddBug(ctx context.Context, req AddBugRequest) (models.Bug, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post("/api/v1/bugs")
	if err != nil {
		return models.Bug{}, &TransportError{Op: "add bug", Err: err}
	}

	var created models.Bug
	if err := decode(resp, &created); err != nil {
		return models.Bug{}, err
	}
	return created, nil
}

func (c *Client) UpdateBug(ctx context.Context, req UpdateBugRequest) (models.Bug, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Put(fmt.Sprintf("/api/v1/bugs/%d", req.BugID))
	if err != nil {
		return models.Bug{}, &TransportError{Op: "update bug", Err: err}
	}

	var updated models.Bug
	if err := decode(resp, &updated); err != nil {
		return models.Bug{}, err
	}
	return updated, nil
}

func (c *Client) RemoveBug(ctx context.Context, bugID int64) error {
	resp, err := c.http.R().SetContext(ctx).Delete(fmt.Sprintf("/api/v1/bugs/%d", bugID))
	if err != nil {
		return &TransportError{Op: "remove bug", Err: err}
	}
	return decode(resp, nil)
}

func (c *Client) AssignUser(ctx context.Context, bugID, userID int64) error {
	body := map[string]any{
		"selectedUserId": models.NullableID(userID),
		"bugId":          bugID,
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/api/v1/bugs/%d/assign", bugID))
	if err != nil {
		return &TransportError{Op: "assign user", Err: err}
	}
	return decode(resp, nil)
}

func (c *Client) SearchBugs(ctx context.Context, term string) ([]models.Bug, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"searchResult": term}).
		Post("/api/v1/bugs/search")
	if err != nil {
		return nil, &TransportError{Op: "search bugs", Err: err}
	}

	var bugs []models.Bug
	if err := decode(resp, &bugs); err != nil {
		return nil, err
	}
	return bugs, nil
}

func (c *Client) ListCoders(ctx context.Context) ([]models.Coder, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/v1/coders")
	if err != nil {
		return nil, &TransportError{Op: "list coders", Err: err}
	}

	var coders []models.Coder
	if err := decode(resp, &coders); err != nil {
		return nil, err
	}
	return coders, nil
}

// AddCoder registers a new coder on the tracker. Not part of Store:
// the core never creates coders, only the CLI admin surface does.
func (c *Client) AddCoder(ctx context.Context, name string) (models.Coder, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"userName": name}).
		Post("/api/v1/coders")
	if err != nil {
		return models.Coder{}, &TransportError{Op: "add coder", Err: err}
	}

	var coder models.Coder
	if err := decode(resp, &coder); err != nil {
		return models.Coder{}, err
	}
	return coder, nil
}

func (c *Client) PushNotification(ctx context.Context, userID int64, message string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"userId": userID, "message": message}).
		Post("/api/v1/notifications/user")
	if err != nil {
		return &TransportError{Op: "push notification", Err: err}
	}
	return decode(resp, nil)
}

func (c *Client) PushNotificationToAll(ctx context.Context, message string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"message": message}).
		Post("/api/v1/notifications/broadcast")
	if err != nil {
		return &TransportError{Op: "broadcast notification", Err: err}
	}
	return decode(resp, nil)
}
