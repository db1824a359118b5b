// Package filter narrows task and team member collections for the board and
// team views.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"pmboard/internal/models"
)

// Spec is a conjunctive set of optional task constraints. Zero-valued fields
// place no constraint.
type Spec struct {
	Role       models.Role     `json:"role"`
	Priority   models.Priority `json:"priority"`
	AssigneeID models.Ref      `json:"assigneeId"`
	Search     string          `json:"search"`
}

// Active reports whether any constraint is set.
func (s Spec) Active() bool {
	return s.Role != "" || s.Priority != "" || s.AssigneeID.Valid || s.Search != ""
}

// Match reports whether t satisfies every active constraint.
func (s Spec) Match(t models.Task) bool {
	if s.Role != "" && t.Role != s.Role {
		return false
	}
	if s.Priority != "" && t.Priority != s.Priority {
		return false
	}
	if s.AssigneeID.Valid && !t.AssigneeID.Is(s.AssigneeID.ID) {
		return false
	}
	if s.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(s.Search)) {
		return false
	}
	return true
}

// Tasks returns the tasks matching spec in their original order. The input
// slice is never modified.
func Tasks(tasks []models.Task, spec Spec) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if spec.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ParseSpec builds a Spec from raw query values. Unknown enum values are kept
// as-is and simply match nothing; only a malformed assignee id is an error.
func ParseSpec(role, priority, assigneeID, search string) (Spec, error) {
	spec := Spec{
		Role:     models.Role(strings.TrimSpace(role)),
		Priority: models.Priority(strings.TrimSpace(priority)),
		Search:   search,
	}
	if raw := strings.TrimSpace(assigneeID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: assignee id %q is not an integer", models.ErrInvalidArgument, raw)
		}
		spec.AssigneeID = models.RefTo(id)
	}
	return spec, nil
}
