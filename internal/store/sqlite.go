package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/bugfix/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Bugs ---

const bugColumns = "id, title, description, status, category, assigned_id, assigned_name, priority, importance, creation_date, open_date"

func scanBug(row interface{ Scan(...any) error }) (*models.Bug, error) {
	bug := &models.Bug{}
	var status, category, creationDate, openDate string
	var assignedID sql.NullInt64

	err := row.Scan(&bug.ID, &bug.Title, &bug.Description, &status, &category,
		&assignedID, &bug.AssignedName, &bug.Priority, &bug.Importance,
		&creationDate, &openDate)
	if err != nil {
		return nil, err
	}

	bug.Status = models.Status(status)
	bug.Category = models.Category(category)
	if assignedID.Valid {
		bug.AssignedID = assignedID.Int64
	}

	if bug.CreationDate, err = models.ParseDate(creationDate); err != nil {
		return nil, fmt.Errorf("bug %d creation date: %w", bug.ID, err)
	}
	if bug.OpenDate, err = models.ParseDate(openDate); err != nil {
		return nil, fmt.Errorf("bug %d open date: %w", bug.ID, err)
	}
	return bug, nil
}

func (s *SQLiteStore) CreateBug(ctx context.Context, bug *models.Bug) error {
	if bug.AssignedName == "" {
		bug.AssignedName = models.UnassignedName
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bugs (title, description, status, category, assigned_id, assigned_name, priority, importance, creation_date, open_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bug.Title, bug.Description, string(bug.Status), string(bug.Category),
		models.NullableID(bug.AssignedID), bug.AssignedName,
		bug.Priority, bug.Importance,
		bug.CreationDate.String(), bug.OpenDate.String(),
	)
	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}

	bug.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create bug: last insert id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBug(ctx context.Context, id int64) (*models.Bug, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bugColumns+" FROM bugs WHERE id = ?", id)
	bug, err := scanBug(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bug %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bug %d: %w", id, err)
	}
	return bug, nil
}

func (s *SQLiteStore) ListBugs(ctx context.Context) ([]*models.Bug, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+bugColumns+" FROM bugs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list bugs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bugs []*models.Bug
	for rows.Next() {
		bug, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bug: %w", err)
		}
		bugs = append(bugs, bug)
	}
	return bugs, rows.Err()
}

func (s *SQLiteStore) UpdateBug(ctx context.Context, bug *models.Bug) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bugs SET title = ?, description = ?, status = ?, category = ?,
		assigned_id = ?, assigned_name = ?, priority = ?, importance = ?,
		creation_date = ?, open_date = ? WHERE id = ?`,
		bug.Title, bug.Description, string(bug.Status), string(bug.Category),
		models.NullableID(bug.AssignedID), bug.AssignedName,
		bug.Priority, bug.Importance,
		bug.CreationDate.String(), bug.OpenDate.String(),
		bug.ID,
	)
	if err != nil {
		return fmt.Errorf("update bug %d: %w", bug.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bug %d: %w", bug.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteBug(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bugs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bug %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bug %d: %w", id, ErrNotFound)
	}
	return nil
}

// AssignBug sets or clears a bug's assignee, keeping the denormalized
// name column in sync. userID 0 clears the assignment.
func (s *SQLiteStore) AssignBug(ctx context.Context, bugID, userID int64) error {
	name := models.UnassignedName
	if userID != 0 {
		coder, err := s.GetCoder(ctx, userID)
		if err != nil {
			return err
		}
		name = coder.Name
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE bugs SET assigned_id = ?, assigned_name = ? WHERE id = ?",
		models.NullableID(userID), name, bugID,
	)
	if err != nil {
		return fmt.Errorf("assign bug %d: %w", bugID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bug %d: %w", bugID, ErrNotFound)
	}
	return nil
}

// SearchBugs matches the term as a case-insensitive substring of the
// title, the same contract the original LIKE query offered.
func (s *SQLiteStore) SearchBugs(ctx context.Context, term string) ([]*models.Bug, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bugColumns+" FROM bugs WHERE title LIKE ? ORDER BY id",
		"%"+term+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("search bugs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bugs []*models.Bug
	for rows.Next() {
		bug, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bug: %w", err)
		}
		bugs = append(bugs, bug)
	}
	return bugs, rows.Err()
}

// --- Coders ---

func (s *SQLiteStore) CreateCoder(ctx context.Context, coder *models.Coder) error {
	res, err := s.db.ExecContext(ctx, "INSERT INTO coders (name) VALUES (?)", coder.Name)
	if err != nil {
		return fmt.Errorf("create coder: %w", err)
	}
	coder.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create coder: last insert id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCoder(ctx context.Context, id int64) (*models.Coder, error) {
	coder := &models.Coder{}
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM coders WHERE id = ?", id).
		Scan(&coder.ID, &coder.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("coder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get coder %d: %w", id, err)
	}
	return coder, nil
}

func (s *SQLiteStore) ListCoders(ctx context.Context) ([]*models.Coder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM coders ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list coders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var coders []*models.Coder
	for rows.Next() {
		coder := &models.Coder{}
		if err := rows.Scan(&coder.ID, &coder.Name); err != nil {
			return nil, fmt.Errorf("scan coder: %w", err)
		}
		coders = append(coders, coder)
	}
	return coders, rows.Err()
}

// --- Notifications ---

func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = newULID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, message, created_at) VALUES (?, ?, ?, ?)",
		n.ID, models.NullableID(n.UserID), n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
