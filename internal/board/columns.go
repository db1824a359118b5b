// Package board implements the kanban column model and task status moves.
package board

import "pmboard/internal/models"

// Column is one board lane.
type Column struct {
	Status models.Status `json:"id"`
	Title  string        `json:"title"`
}

// Columns lists the lanes left to right.
var Columns = []Column{
	{Status: models.StatusTodo, Title: "To Do"},
	{Status: models.StatusInProgress, Title: "In Progress"},
	{Status: models.StatusInReview, Title: "In Review"},
	{Status: models.StatusDone, Title: "Done"},
}

// ColumnTitle returns the display title for status, or the raw status when
// it is not a known column.
func ColumnTitle(status models.Status) string {
	for _, c := range Columns {
		if c.Status == status {
			return c.Title
		}
	}
	return string(status)
}

// Lane is a column with the tasks currently in it.
type Lane struct {
	Column
	Count int           `json:"count"`
	Tasks []models.Task `json:"tasks"`
}

// Group buckets tasks into lanes, keeping their relative order. Every column
// is present even when empty.
func Group(tasks []models.Task) []Lane {
	lanes := make([]Lane, len(Columns))
	index := make(map[models.Status]int, len(Columns))
	for i, c := range Columns {
		lanes[i] = Lane{Column: c, Tasks: []models.Task{}}
		index[c.Status] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		lanes[i].Tasks = append(lanes[i].Tasks, t)
		lanes[i].Count++
	}
	return lanes
}
