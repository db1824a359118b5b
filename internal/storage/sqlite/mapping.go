package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pmboard/internal/models"
)

// Row types mirror the snake_case columns. The to*/from* pairs below are the
// only place field names are translated between storage and the model.

type taskRow struct {
	ID          int64           `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Status      string          `db:"status"`
	Priority    string          `db:"priority"`
	Role        string          `db:"role"`
	AssigneeID  models.Ref      `db:"assignee_id"`
	SprintID    models.Ref      `db:"sprint_id"`
	Estimate    sql.NullFloat64 `db:"estimate"`
	Tags        string          `db:"tags"`
	Version     int64           `db:"version"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type sprintRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Status    string    `db:"status"`
	Goals     string    `db:"goals"`
	TeamID    int64     `db:"team_id"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type memberRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	Avatar    string    `db:"avatar"`
	Capacity  int       `db:"capacity"`
	Skills    string    `db:"skills"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const listSeparator = ","

// joinList encodes a list as comma-joined text. Items containing the
// separator cannot round-trip and are rejected.
func joinList(items []string) (string, error) {
	for _, item := range items {
		if strings.Contains(item, listSeparator) {
			return "", fmt.Errorf("%w: list item %q contains %q", models.ErrInvalidArgument, item, listSeparator)
		}
	}
	return strings.Join(items, listSeparator), nil
}

// splitList is the inverse of joinList; the empty string is the empty list.
func splitList(text string) []string {
	if text == "" {
		return []string{}
	}
	return strings.Split(text, listSeparator)
}

func toTaskRow(t models.Task) (taskRow, error) {
	tags, err := joinList(t.Tags)
	if err != nil {
		return taskRow{}, err
	}
	row := taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Role:        string(t.Role),
		AssigneeID:  t.AssigneeID,
		SprintID:    t.SprintID,
		Tags:        tags,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.Estimate != nil {
		row.Estimate = sql.NullFloat64{Float64: *t.Estimate, Valid: true}
	}
	return row, nil
}

func fromTaskRow(r taskRow) models.Task {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.Status(r.Status),
		Priority:    models.Priority(r.Priority),
		Role:        models.Role(r.Role),
		AssigneeID:  r.AssigneeID,
		SprintID:    r.SprintID,
		Tags:        splitList(r.Tags),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.Estimate.Valid {
		v := r.Estimate.Float64
		t.Estimate = &v
	}
	return t
}

func toSprintRow(s models.Sprint) sprintRow {
	return sprintRow{
		ID:        s.ID,
		Name:      s.Name,
		StartDate: s.StartDate.UTC(),
		EndDate:   s.EndDate.UTC(),
		Status:    string(s.Status),
		Goals:     s.Goals,
		TeamID:    s.TeamID,
		Version:   s.Version,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func fromSprintRow(r sprintRow) models.Sprint {
	return models.Sprint{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate.UTC(),
		EndDate:   r.EndDate.UTC(),
		Status:    models.SprintStatus(r.Status),
		Goals:     r.Goals,
		TeamID:    r.TeamID,
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toMemberRow(m models.TeamMember) (memberRow, error) {
	skills, err := joinList(m.Skills)
	if err != nil {
		return memberRow{}, err
	}
	return memberRow{
		ID:        m.ID,
		Name:      m.Name,
		Role:      string(m.Role),
		Avatar:    m.Avatar,
		Capacity:  m.Capacity,
		Skills:    skills,
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

func fromMemberRow(r memberRow) models.TeamMember {
	return models.TeamMember{
		ID:        r.ID,
		Name:      r.Name,
		Role:      models.Role(r.Role),
		Avatar:    r.Avatar,
		Capacity:  r.Capacity,
		Skills:    splitList(r.Skills),
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
