package stats

import "pmboard/internal/models"

// TasksForSprint returns the tasks referencing sprintID in order.
func TasksForSprint(tasks []models.Task, sprintID int64) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if t.SprintID.Is(sprintID) {
			out = append(out, t)
		}
	}
	return out
}

// SprintProgress is the figures on a sprint card.
type SprintProgress struct {
	Sprint    models.Sprint `json:"sprint"`
	TaskCount int           `json:"taskCount"`
	DoneCount int           `json:"doneCount"`
	Progress  int           `json:"progress"`
}

func SummarizeSprint(sp models.Sprint, tasks []models.Task) SprintProgress {
	own := TasksForSprint(tasks, sp.ID)
	return SprintProgress{
		Sprint:    sp,
		TaskCount: len(own),
		DoneCount: countStatus(own, models.StatusDone),
		Progress:  CompletionRate(own),
	}
}

// ActiveSprint returns the first active sprint. More than one may be active;
// nothing enforces uniqueness.
func ActiveSprint(sprints []models.Sprint) (models.Sprint, bool) {
	for _, sp := range sprints {
		if sp.Status == models.SprintActive {
			return sp, true
		}
	}
	return models.Sprint{}, false
}
