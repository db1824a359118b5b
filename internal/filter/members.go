package filter

import (
	"fmt"

	"pmboard/internal/models"
)

// WorkloadBand buckets members by assigned-task load.
type WorkloadBand string

const (
	WorkloadHigh   WorkloadBand = "high"
	WorkloadMedium WorkloadBand = "medium"
	WorkloadLow    WorkloadBand = "low"
)

// ParseWorkloadBand accepts "", high, medium or low.
func ParseWorkloadBand(raw string) (WorkloadBand, error) {
	switch b := WorkloadBand(raw); b {
	case "", WorkloadHigh, WorkloadMedium, WorkloadLow:
		return b, nil
	}
	return "", fmt.Errorf("%w: unknown workload band %q", models.ErrInvalidArgument, raw)
}

// Contains reports whether an unrounded workload percentage falls in b.
// high is >= 80, medium is [40, 80), low is < 40.
func (b WorkloadBand) Contains(pct float64) bool {
	switch b {
	case WorkloadHigh:
		return pct >= 80
	case WorkloadMedium:
		return pct >= 40 && pct < 80
	case WorkloadLow:
		return pct < 40
	}
	return true
}

// MemberSpec narrows the team view.
type MemberSpec struct {
	Role     models.Role
	Workload WorkloadBand
}

// Members returns the members matching spec, in order. Workload is the
// member's assigned task count over capacity, not clamped.
func Members(members []models.TeamMember, tasks []models.Task, spec MemberSpec) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		if spec.Role != "" && m.Role != spec.Role {
			continue
		}
		if spec.Workload != "" && !spec.Workload.Contains(rawWorkload(m, tasks)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func rawWorkload(m models.TeamMember, tasks []models.Task) float64 {
	if m.Capacity <= 0 {
		return 0
	}
	n := 0
	for _, t := range tasks {
		if t.AssigneeID.Is(m.ID) {
			n++
		}
	}
	return float64(n) / float64(m.Capacity) * 100
}
