package models

// Coder is a user eligible to be assigned a bug. The roster is read-only
// from the core's perspective; it is fetched once per list session.
type Coder struct {
	ID   int64  `json:"userId"`
	Name string `json:"userName"`
}
