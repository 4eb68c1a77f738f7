package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/bugfix/internal/models"
)

func TestListBugs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/bugs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"bugId":1,"title":"a","status":"New","creationDate":"2024-03-01"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	bugs, err := c.ListBugs(context.Background())
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, int64(1), bugs[0].ID)
	assert.Equal(t, models.StatusNew, bugs[0].Status)
	assert.Equal(t, "2024-03-01", bugs[0].CreationDate.String())
}

func TestErrorEnvelope_On200(t *testing.T) {
	// The tracker signals some failures in the body with HTTP 200.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"failed to list coders","message":"db locked"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListCoders(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Contains(t, apiErr.Message, "failed to list coders")
	assert.Contains(t, apiErr.Message, "db locked")
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListBugs(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	_, err := c.ListBugs(context.Background())
	require.Error(t, err)

	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
}

func TestAddBug_Payload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bugs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bugId":42,"title":"a"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	created, err := c.AddBug(context.Background(), AddBugRequest{
		Title:        "a",
		Description:  "b",
		Status:       models.StatusNew,
		Category:     models.CategoryUI,
		AssignedName: models.UnassignedName,
		Priority:     5,
		Importance:   5,
		CreationDate: "15/03/2024",
		OpenDate:     "15/03/2024",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)

	// The create payload carries the display-format dates verbatim and
	// an explicit null for the unassigned id.
	assert.Equal(t, "15/03/2024", got["creationDate"])
	assert.Equal(t, "15/03/2024", got["openDate"])
	assert.Nil(t, got["assignedId"])
	assert.Equal(t, "Unassigned", got["assignedUsername"])
}

func TestUpdateBug_PathAndFlag(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/bugs/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bugId":7,"title":"a"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.UpdateBug(context.Background(), UpdateRequestFor(models.Bug{ID: 7, Title: "a"}, true))
	require.NoError(t, err)

	assert.Equal(t, float64(7), got["bugId"])
	assert.Equal(t, true, got["isDescriptionChanged"])
}

func TestRemoveBug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/bugs/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.RemoveBug(context.Background(), 3))
}

func TestAssignUser_Payload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bugs/3/assign", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.AssignUser(context.Background(), 3, 9))
	assert.Equal(t, float64(9), got["selectedUserId"])
	assert.Equal(t, float64(3), got["bugId"])

	// Unassigning sends an explicit null.
	require.NoError(t, c.AssignUser(context.Background(), 3, 0))
	assert.Nil(t, got["selectedUserId"])
}

func TestSearchBugs_Payload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bugs/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	bugs, err := c.SearchBugs(context.Background(), "login")
	require.NoError(t, err)
	assert.Empty(t, bugs)
	assert.Equal(t, "login", got["searchResult"])
}

func TestNotifications(t *testing.T) {
	var paths []string
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.PushNotification(context.Background(), 3, "for you"))
	require.NoError(t, c.PushNotificationToAll(context.Background(), "for everyone"))

	require.Len(t, paths, 2)
	assert.Equal(t, "/api/v1/notifications/user", paths[0])
	assert.Equal(t, float64(3), bodies[0]["userId"])
	assert.Equal(t, "for you", bodies[0]["message"])
	assert.Equal(t, "/api/v1/notifications/broadcast", paths[1])
	assert.Equal(t, "for everyone", bodies[1]["message"])
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &TransportError{Op: "list bugs", Err: errors.New("refused")}
	assert.Contains(t, err.Error(), "list bugs")
	assert.Contains(t, err.Error(), "refused")
}
