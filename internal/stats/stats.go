// Package stats computes the derived figures shown on the dashboard. Every
// reducer is total over well-typed input and returns zero values for empty
// collections.
package stats

import (
	"fmt"
	"math"
	"time"

	"pmboard/internal/models"
)

// ErrInvalidArgument is returned for non-positive capacities.
var ErrInvalidArgument = models.ErrInvalidArgument

// OverdueAge is how long an unfinished task may sit before it counts as overdue.
const OverdueAge = 7 * 24 * time.Hour

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

func countStatus(tasks []models.Task, status models.Status) int {
	n := 0
	for _, t := range tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// CompletionRate is the rounded share of done tasks, 0 for no tasks.
func CompletionRate(tasks []models.Task) int {
	return percent(countStatus(tasks, models.StatusDone), len(tasks))
}

// WorkloadPercentage is the rounded share of capacity used by assigned tasks,
// clamped to 100.
func WorkloadPercentage(tasks []models.Task, capacity int) (int, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}
	assigned := 0
	for _, t := range tasks {
		if t.AssigneeID.Valid {
			assigned++
		}
	}
	return min(100, percent(assigned, capacity)), nil
}

// StatusBreakdown counts tasks per status. All four statuses are present.
func StatusBreakdown(tasks []models.Task) map[models.Status]int {
	out := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		out[s] = 0
	}
	for _, t := range tasks {
		out[t.Status]++
	}
	return out
}

// RoleBreakdown counts tasks per role. All three roles are present.
func RoleBreakdown(tasks []models.Task) map[models.Role]int {
	out := make(map[models.Role]int, len(models.Roles))
	for _, r := range models.Roles {
		out[r] = 0
	}
	for _, t := range tasks {
		out[t.Role]++
	}
	return out
}

// Velocity is the number of done tasks. It does not weight by estimate.
func Velocity(tasks []models.Task) int {
	return countStatus(tasks, models.StatusDone)
}

// OverdueCount counts unfinished tasks created more than OverdueAge before now.
// There is no due date; age stands in for it.
func OverdueCount(tasks []models.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.Status != models.StatusDone && now.Sub(t.CreatedAt) > OverdueAge {
			n++
		}
	}
	return n
}

// Dashboard is the analytics header.
type Dashboard struct {
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	OverdueTasks    int `json:"overdueTasks"`
	CompletionRate  int `json:"completionRate"`
	Velocity        int `json:"velocity"`
}

// Summarize computes the analytics header for tasks at now.
func Summarize(tasks []models.Task, now time.Time) Dashboard {
	return Dashboard{
		TotalTasks:      len(tasks),
		CompletedTasks:  countStatus(tasks, models.StatusDone),
		InProgressTasks: countStatus(tasks, models.StatusInProgress),
		OverdueTasks:    OverdueCount(tasks, now),
		CompletionRate:  CompletionRate(tasks),
		Velocity:        Velocity(tasks),
	}
}

// IdealBurndown returns the straight-line remaining-work percentage for each
// day of a sprint, starting at 100.
func IdealBurndown(days int) []int {
	if days <= 0 {
		return []int{}
	}
	out := make([]int, days)
	for i := range out {
		out[i] = int(math.Round(100 - float64(i)*100/float64(days)))
	}
	return out
}
