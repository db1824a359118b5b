package models

import "time"

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusInReview   Status = "inreview"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusInReview, StatusDone}

// Valid reports whether s is one of the four board statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Priority ranks task urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Role is shared by tasks and team members.
type Role string

const (
	RoleDev    Role = "dev"
	RoleTester Role = "tester"
	RolePM     Role = "pm"
)

// Roles lists every role.
var Roles = []Role{RoleDev, RoleTester, RolePM}

func (r Role) Valid() bool {
	switch r {
	case RoleDev, RoleTester, RolePM:
		return true
	}
	return false
}

// SprintStatus is the lifecycle label of a sprint.
type SprintStatus string

const (
	SprintPlanned   SprintStatus = "planned"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// Task represents a single card on the board.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Role        Role      `json:"role"`
	AssigneeID  Ref       `json:"assigneeId"`
	SprintID    Ref       `json:"sprintId"`
	Estimate    *float64  `json:"estimate"`
	Tags        []string  `json:"tags"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	t.Tags = cloneStrings(t.Tags)
	if t.Estimate != nil {
		v := *t.Estimate
		t.Estimate = &v
	}
	return t
}

// Sprint is a time-boxed iteration grouping tasks.
type Sprint struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Status    SprintStatus `json:"status"`
	Goals     string       `json:"goals"`
	TeamID    int64        `json:"teamId"`
	Version   int64        `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Clone returns a copy of s. Sprints hold no reference fields.
func (s Sprint) Clone() Sprint {
	return s
}

// TeamMember is a person tasks can be assigned to.
type TeamMember struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar"`
	Capacity  int       `json:"capacity"`
	Skills    []string  `json:"skills"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m TeamMember) Clone() TeamMember {
	m.Skills = cloneStrings(m.Skills)
	return m
}

// cloneStrings always returns a non-nil slice so lists encode as [] rather
// than null.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
