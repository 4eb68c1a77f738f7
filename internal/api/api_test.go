package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/store"
)

func setupTestServer(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	return NewServer(s).Router(), s
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListBugs_Empty(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, "GET", "/api/v1/bugs", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var bugs []*models.Bug
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bugs))
	assert.NotNil(t, bugs, "empty list encodes as [], not null")
	assert.Empty(t, bugs)
}

func TestCreateBug_Defaults(t *testing.T) {
	router, _ := setupTestServer(t)

	body := `{"title":"Login crashes","description":"boom","priority":7,"importance":5,"creationDate":"01/03/2024","openDate":"02/03/2024"}`
	w := doJSON(t, router, "POST", "/api/v1/bugs", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Bug
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.StatusNew, created.Status, "status defaults to New")
	assert.Equal(t, models.CategoryFunctionality, created.Category, "category defaults to Functionality")
	assert.Equal(t, models.UnassignedName, created.AssignedName)
	// Display-format dates normalize to ISO
	assert.Equal(t, "2024-03-01", created.CreationDate.String())
	assert.Equal(t, "2024-03-02", created.OpenDate.String())
}

func TestCreateBug_Validation(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, "POST", "/api/v1/bugs", `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/bugs", `{"title":"x","status":"Closed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/bugs", `{"title":"x","category":"Backend"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/bugs", `{"title":"x","creationDate":"2024-03-02","openDate":"2024-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.NotEmpty(t, errBody["error"], "failures carry the error field the client checks")
}

func TestCreateBug_ResolvesAssigneeName(t *testing.T) {
	router, s := setupTestServer(t)
	ctx := context.Background()

	coder := &models.Coder{Name: "Alice"}
	require.NoError(t, s.CreateCoder(ctx, coder))

	body := `{"title":"x","description":"y","assignedId":1}`
	w := doJSON(t, router, "POST", "/api/v1/bugs", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Bug
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.AssignedID)
	assert.Equal(t, "Alice", created.AssignedName)
}

func TestCreateBug_UnknownAssignee(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, "POST", "/api/v1/bugs", `{"title":"x","assignedId":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func seedBug(t *testing.T, s store.Store, status models.Status) *models.Bug {
	t.Helper()
	bug := &models.Bug{
		Title:        "Seeded",
		Description:  "seed",
		Status:       status,
		Category:     models.CategoryUI,
		Priority:     3,
		Importance:   3,
		CreationDate: models.NewDate(2024, 3, 1),
		OpenDate:     models.NewDate(2024, 3, 1),
	}
	require.NoError(t, s.CreateBug(context.Background(), bug))
	return bug
}

func TestUpdateBug(t *testing.T) {
	router, s := setupTestServer(t)
	bug := seedBug(t, s, models.StatusNew)

	body := `{"title":"Seeded","description":"edited","status":"In Progress","category":"Ui","priority":8,"importance":6,"isDescriptionChanged":true}`
	w := doJSON(t, router, "PUT", "/api/v1/bugs/1", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Bug
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, bug.ID, updated.ID)
	assert.Equal(t, "edited", updated.Description)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, 8, updated.Priority)
	// Dates absent from the payload are preserved
	assert.Equal(t, "2024-03-01", updated.CreationDate.String())
}

func TestUpdateBug_NotFound(t *testing.T) {
	router, _ := setupTestServer(t)

	body := `{"title":"x","status":"New","category":"Ui"}`
	w := doJSON(t, router, "PUT", "/api/v1/bugs/99", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveBug_OnlyDone(t *testing.T) {
	router, s := setupTestServer(t)
	seedBug(t, s, models.StatusInProgress)

	w := doJSON(t, router, "DELETE", "/api/v1/bugs/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Move it to Done and retry
	bug, err := s.GetBug(context.Background(), 1)
	require.NoError(t, err)
	bug.Status = models.StatusDone
	require.NoError(t, s.UpdateBug(context.Background(), bug))

	w = doJSON(t, router, "DELETE", "/api/v1/bugs/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, err = s.GetBug(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemoveBug_NotFound(t *testing.T) {
	router, _ := setupTestServer(t)
	w := doJSON(t, router, "DELETE", "/api/v1/bugs/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignBug(t *testing.T) {
	router, s := setupTestServer(t)
	ctx := context.Background()

	coder := &models.Coder{Name: "Alice"}
	require.NoError(t, s.CreateCoder(ctx, coder))
	seedBug(t, s, models.StatusNew)

	w := doJSON(t, router, "POST", "/api/v1/bugs/1/assign", `{"selectedUserId":1,"bugId":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	bug, err := s.GetBug(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bug.AssignedID)
	assert.Equal(t, "Alice", bug.AssignedName)

	// Null clears the assignment
	w = doJSON(t, router, "POST", "/api/v1/bugs/1/assign", `{"selectedUserId":null,"bugId":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	bug, err = s.GetBug(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bug.AssignedID)
	assert.Equal(t, models.UnassignedName, bug.AssignedName)
}

func TestAssignBug_UnknownCoder(t *testing.T) {
	router, s := setupTestServer(t)
	seedBug(t, s, models.StatusNew)

	w := doJSON(t, router, "POST", "/api/v1/bugs/1/assign", `{"selectedUserId":42}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchBugs(t *testing.T) {
	router, s := setupTestServer(t)
	ctx := context.Background()

	for _, title := range []string{"Login crashes", "Search is slow"} {
		bug := seedBug(t, s, models.StatusNew)
		bug.Title = title
		require.NoError(t, s.UpdateBug(ctx, bug))
	}

	w := doJSON(t, router, "POST", "/api/v1/bugs/search", `{"searchResult":"login"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var found []*models.Bug
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Login crashes", found[0].Title)

	// No matches is an empty array, not an error
	w = doJSON(t, router, "POST", "/api/v1/bugs/search", `{"searchResult":"zzz"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Empty(t, found)
}

func TestCoders_API(t *testing.T) {
	router, _ := setupTestServer(t)

	// Empty roster is []
	w := doJSON(t, router, "GET", "/api/v1/coders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var coders []*models.Coder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coders))
	assert.Empty(t, coders)

	// Create
	w = doJSON(t, router, "POST", "/api/v1/coders", `{"userName":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Coder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	// Missing name
	w = doJSON(t, router, "POST", "/api/v1/coders", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// List again
	w = doJSON(t, router, "GET", "/api/v1/coders", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coders))
	require.Len(t, coders, 1)
	assert.Equal(t, "Alice", coders[0].Name)
}

func TestNotifications_API(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, "POST", "/api/v1/notifications/user", `{"userId":3,"message":"for you"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/notifications/user", `{"message":"nobody"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "userId 0 is not addressable")

	w = doJSON(t, router, "POST", "/api/v1/notifications/broadcast", `{"message":"for everyone"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/api/v1/notifications/broadcast", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/bugs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
