package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/bugfix/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func testBug() *models.Bug {
	return &models.Bug{
		Title:        "Login crashes",
		Description:  "Crash on submit",
		Status:       models.StatusNew,
		Category:     models.CategoryFunctionality,
		Priority:     7,
		Importance:   5,
		CreationDate: models.NewDate(2024, time.March, 1),
		OpenDate:     models.NewDate(2024, time.March, 2),
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestBugCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Create
	bug := testBug()
	require.NoError(t, s.CreateBug(ctx, bug))
	assert.NotZero(t, bug.ID)
	assert.Equal(t, models.UnassignedName, bug.AssignedName, "unassigned name defaults")

	// Get
	got, err := s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, bug.Title, got.Title)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, int64(0), got.AssignedID)
	assert.True(t, got.CreationDate.Equal(models.NewDate(2024, time.March, 1)))
	assert.True(t, got.OpenDate.Equal(models.NewDate(2024, time.March, 2)))

	// Update
	got.Status = models.StatusInProgress
	got.Description = "Crash on submit, reproduced"
	require.NoError(t, s.UpdateBug(ctx, got))

	got2, err := s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got2.Status)
	assert.Equal(t, "Crash on submit, reproduced", got2.Description)

	// Delete
	require.NoError(t, s.DeleteBug(ctx, bug.ID))
	_, err = s.GetBug(ctx, bug.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBug_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetBug(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBug_NotFound(t *testing.T) {
	s := newTestStore(t)
	bug := testBug()
	bug.ID = 999
	assert.ErrorIs(t, s.UpdateBug(context.Background(), bug), ErrNotFound)
}

func TestDeleteBug_NotFound(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.DeleteBug(context.Background(), 999), ErrNotFound)
}

func TestListBugs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateBug(ctx, testBug()))
	}

	bugs, err := s.ListBugs(ctx)
	require.NoError(t, err)
	assert.Len(t, bugs, 3)
}

func TestAssignBug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coder := &models.Coder{Name: "Alice"}
	require.NoError(t, s.CreateCoder(ctx, coder))

	bug := testBug()
	require.NoError(t, s.CreateBug(ctx, bug))

	// Assign keeps the denormalized name in sync
	require.NoError(t, s.AssignBug(ctx, bug.ID, coder.ID))
	got, err := s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, coder.ID, got.AssignedID)
	assert.Equal(t, "Alice", got.AssignedName)

	// Clearing resets to the unassigned sentinel
	require.NoError(t, s.AssignBug(ctx, bug.ID, 0))
	got, err = s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AssignedID)
	assert.Equal(t, models.UnassignedName, got.AssignedName)
}

func TestAssignBug_UnknownCoder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bug := testBug()
	require.NoError(t, s.CreateBug(ctx, bug))

	assert.ErrorIs(t, s.AssignBug(ctx, bug.ID, 42), ErrNotFound)
}

func TestAssignBug_UnknownBug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coder := &models.Coder{Name: "Alice"}
	require.NoError(t, s.CreateCoder(ctx, coder))

	assert.ErrorIs(t, s.AssignBug(ctx, 999, coder.ID), ErrNotFound)
}

func TestSearchBugs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	titles := []string{"Login crashes", "Search is slow", "login page typo"}
	for _, title := range titles {
		bug := testBug()
		bug.Title = title
		require.NoError(t, s.CreateBug(ctx, bug))
	}

	// LIKE is case-insensitive for ASCII
	found, err := s.SearchBugs(ctx, "login")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchBugs(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCoders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := &models.Coder{Name: "Alice"}
	bob := &models.Coder{Name: "Bob"}
	require.NoError(t, s.CreateCoder(ctx, alice))
	require.NoError(t, s.CreateCoder(ctx, bob))
	assert.NotZero(t, alice.ID)

	got, err := s.GetCoder(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	coders, err := s.ListCoders(ctx)
	require.NoError(t, err)
	require.Len(t, coders, 2)
	assert.Equal(t, "Alice", coders[0].Name)

	_, err = s.GetCoder(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateNotification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{UserID: 3, Message: "You have been assigned to a new bug: x"}
	require.NoError(t, s.CreateNotification(ctx, n))
	assert.NotEmpty(t, n.ID, "ULID assigned")
	assert.False(t, n.CreatedAt.IsZero())

	// Broadcasts store a null user id
	b := &models.Notification{Message: "New bug was added to the system: x"}
	require.NoError(t, s.CreateNotification(ctx, b))
	assert.True(t, b.Broadcast())
}
