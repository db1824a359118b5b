// Package storage defines the entity store contract shared by the memory and
// SQLite backends.
package storage

import (
	"context"
	"fmt"
	"time"

	"pmboard/internal/models"
)

// Re-exported so callers of a store need not import models for matching.
var (
	ErrNotFound        = models.ErrNotFound
	ErrInvalidArgument = models.ErrInvalidArgument
	ErrUnavailable     = models.ErrUnavailable
	ErrConflict        = models.ErrConflict
)

// TaskStore manages the task collection.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}

// SprintStore manages the sprint collection.
type SprintStore interface {
	ListSprints(ctx context.Context) ([]models.Sprint, error)
	GetSprint(ctx context.Context, id int64) (models.Sprint, error)
	CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error)
	UpdateSprint(ctx context.Context, id int64, patch models.SprintPatch) (models.Sprint, error)
	DeleteSprint(ctx context.Context, id int64) (bool, error)
}

// TeamMemberStore manages the team member collection.
type TeamMemberStore interface {
	ListTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	GetTeamMember(ctx context.Context, id int64) (models.TeamMember, error)
	CreateTeamMember(ctx context.Context, in models.TeamMemberInput) (models.TeamMember, error)
	UpdateTeamMember(ctx context.Context, id int64, patch models.TeamMemberPatch) (models.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id int64) (bool, error)
}

// Store owns all three collections. Every returned record is an independent
// copy; callers may mutate it freely.
type Store interface {
	TaskStore
	SprintStore
	TeamMemberStore
	Close() error
}

// Clock returns the current time. Stores take one so tests can pin it.
type Clock func() time.Time

// UTCClock is the default clock.
func UTCClock() time.Time {
	return time.Now().UTC()
}

// NextStamp returns a modification time strictly after prev, using now when
// the clock has moved on.
func NextStamp(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// CheckVersion returns ErrConflict when expected is set and differs from current.
func CheckVersion(expected *int64, current int64) error {
	if expected != nil && *expected != current {
		return fmt.Errorf("%w: expected version %d, stored %d", ErrConflict, *expected, current)
	}
	return nil
}
