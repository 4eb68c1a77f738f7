package models

// Status represents the lifecycle state of a bug.
// The states are ordered conceptually New -> In Progress -> Done, but any
// status may be set to any other directly; no transition is forbidden.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists all valid statuses in conceptual order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Category classifies the area of the system a bug affects.
type Category string

const (
	CategoryUI            Category = "Ui"
	CategoryFunctionality Category = "Functionality"
	CategoryPerformance   Category = "Performance"
	CategoryUsability     Category = "Usability"
	CategorySecurity      Category = "Security"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryUI,
	CategoryFunctionality,
	CategoryPerformance,
	CategoryUsability,
	CategorySecurity,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryUI, CategoryFunctionality, CategoryPerformance, CategoryUsability, CategorySecurity:
		return true
	}
	return false
}

// UnassignedName is the display name shown when a bug has no assignee.
const UnassignedName = "Unassigned"

// Bug represents a tracked defect record.
//
// AssignedID uses 0 as the single "unassigned" sentinel throughout the
// core. The tracker server may emit JSON null for an unassigned bug;
// decoding null into an int64 leaves the zero value, so both wire forms
// normalize to 0 at this boundary. AssignedName is a denormalized copy
// of the assignee's name and must be kept in sync whenever AssignedID
// changes.
type Bug struct {
	ID           int64    `json:"bugId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Status       Status   `json:"status"`
	Category     Category `json:"category"`
	AssignedID   int64    `json:"assignedId"`
	AssignedName string   `json:"assignedUsername"`
	Priority     int      `json:"priority"`
	Importance   int      `json:"importance"`
	CreationDate Date     `json:"creationDate"`
	OpenDate     Date     `json:"openDate"`
}

// Assigned reports whether the bug has an assignee.
func (b *Bug) Assigned() bool {
	return b.AssignedID != 0
}

// SetAssignee updates both assignment fields together so the
// denormalized name never drifts from the id.
func (b *Bug) SetAssignee(userID int64, userName string) {
	if userID == 0 {
		b.AssignedID = 0
		b.AssignedName = UnassignedName
		return
	}
	b.AssignedID = userID
	b.AssignedName = userName
}

// NullableID converts the core's 0-means-unassigned convention to the
// wire's null-means-unassigned convention for outgoing payloads.
func NullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
