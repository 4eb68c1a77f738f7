package models

import "time"

// Notification is a message pushed to one user or broadcast to all users
// as a side effect of a bug mutation. UserID 0 marks a broadcast.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Broadcast reports whether the notification targets all users.
func (n *Notification) Broadcast() bool {
	return n.UserID == 0
}
