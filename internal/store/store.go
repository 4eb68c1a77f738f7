package store

import (
	"context"
	"errors"

	"github.com/joescharf/bugfix/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the tracker server's persistence interface.
type Store interface {
	// Bugs
	CreateBug(ctx context.Context, bug *models.Bug) error
	GetBug(ctx context.Context, id int64) (*models.Bug, error)
	ListBugs(ctx context.Context) ([]*models.Bug, error)
	UpdateBug(ctx context.Context, bug *models.Bug) error
	DeleteBug(ctx context.Context, id int64) error
	AssignBug(ctx context.Context, bugID, userID int64) error
	SearchBugs(ctx context.Context, term string) ([]*models.Bug, error)

	// Coders
	CreateCoder(ctx context.Context, coder *models.Coder) error
	GetCoder(ctx context.Context, id int64) (*models.Coder, error)
	ListCoders(ctx context.Context) ([]*models.Coder, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
