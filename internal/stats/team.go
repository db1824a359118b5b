package stats

import (
	"math"

	"pmboard/internal/models"
)

// WorkloadLevel labels a workload percentage for display.
type WorkloadLevel string

const (
	LevelHigh   WorkloadLevel = "high"
	LevelMedium WorkloadLevel = "medium"
	LevelLow    WorkloadLevel = "low"
)

// LevelFor maps a workload percentage to its level: >= 90 high, >= 70 medium.
func LevelFor(pct int) WorkloadLevel {
	switch {
	case pct >= 90:
		return LevelHigh
	case pct >= 70:
		return LevelMedium
	default:
		return LevelLow
	}
}

// TasksForMember returns the tasks assigned to memberID in order.
func TasksForMember(tasks []models.Task, memberID int64) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if t.AssigneeID.Is(memberID) {
			out = append(out, t)
		}
	}
	return out
}

// MemberSummary is the figures on a team member card.
type MemberSummary struct {
	Member          models.TeamMember `json:"member"`
	TaskCount       int               `json:"taskCount"`
	InProgressCount int               `json:"inProgressCount"`
	CompletionRate  int               `json:"completionRate"`
	Workload        int               `json:"workload"`
	Level           WorkloadLevel     `json:"level"`
}

// SummarizeMember computes the card for m over the full task list.
func SummarizeMember(m models.TeamMember, tasks []models.Task) (MemberSummary, error) {
	own := TasksForMember(tasks, m.ID)
	workload, err := WorkloadPercentage(own, m.Capacity)
	if err != nil {
		return MemberSummary{}, err
	}
	return MemberSummary{
		Member:          m,
		TaskCount:       len(own),
		InProgressCount: countStatus(own, models.StatusInProgress),
		CompletionRate:  CompletionRate(own),
		Workload:        workload,
		Level:           LevelFor(workload),
	}, nil
}

// Team is the team overview header.
type Team struct {
	TotalMembers   int                 `json:"totalMembers"`
	ActiveTasks    int                 `json:"activeTasks"`
	CompletedTasks int                 `json:"completedTasks"`
	AvgWorkload    int                 `json:"avgWorkload"`
	RoleCount      map[models.Role]int `json:"roleCount"`
}

// SummarizeTeam computes the overview. The average uses unclamped workloads;
// members with non-positive capacity contribute zero.
func SummarizeTeam(members []models.TeamMember, tasks []models.Task) Team {
	done := countStatus(tasks, models.StatusDone)
	roles := make(map[models.Role]int, len(models.Roles))
	for _, r := range models.Roles {
		roles[r] = 0
	}

	var total float64
	for _, m := range members {
		roles[m.Role]++
		if m.Capacity > 0 {
			total += float64(len(TasksForMember(tasks, m.ID))) / float64(m.Capacity) * 100
		}
	}
	avg := 0
	if len(members) > 0 {
		avg = int(math.Round(total / float64(len(members))))
	}

	return Team{
		TotalMembers:   len(members),
		ActiveTasks:    len(tasks) - done,
		CompletedTasks: done,
		AvgWorkload:    avg,
		RoleCount:      roles,
	}
}
