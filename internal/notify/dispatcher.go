// Package notify isolates fan-out notification dispatch behind a small
// interface so the delivery mechanism can change without touching the
// mutation logic that triggers it.
package notify

import (
	"context"
	"log/slog"
)

// Pusher is the delivery surface the dispatcher needs. *remote.Client
// satisfies it.
type Pusher interface {
	PushNotification(ctx context.Context, userID int64, message string) error
	PushNotificationToAll(ctx context.Context, message string) error
}

// Dispatcher pushes messages best-effort: a failed delivery is logged
// and swallowed, never retried, and never unwinds the record mutation
// that triggered it.
type Dispatcher struct {
	pusher Pusher
}

// NewDispatcher creates a dispatcher backed by the given pusher.
func NewDispatcher(p Pusher) *Dispatcher {
	return &Dispatcher{pusher: p}
}

// NotifyUser pushes a message to one user. UserID 0 (unassigned) is a
// no-op: there is nobody to notify.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID int64, message string) {
	if userID == 0 {
		return
	}
	if err := d.pusher.PushNotification(ctx, userID, message); err != nil {
		slog.Warn("notification to user failed", "userId", userID, "error", err)
	}
}

// NotifyAll pushes a message to every user.
func (d *Dispatcher) NotifyAll(ctx context.Context, message string) {
	if err := d.pusher.PushNotificationToAll(ctx, message); err != nil {
		slog.Warn("broadcast notification failed", "error", err)
	}
}
