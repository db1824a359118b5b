// Package seed loads demo fixtures into an entity store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pmboard/internal/models"
	"pmboard/internal/storage"
)

//go:embed demo.yaml
var demoFixtures []byte

// Fixtures is the on-disk fixture document. Refs are local to the document
// and are remapped to the ids the store assigns.
type Fixtures struct {
	Members []MemberFixture `yaml:"members"`
	Sprints []SprintFixture `yaml:"sprints"`
	Tasks   []TaskFixture   `yaml:"tasks"`
}

type MemberFixture struct {
	Ref      int64    `yaml:"ref"`
	Name     string   `yaml:"name"`
	Role     string   `yaml:"role"`
	Avatar   string   `yaml:"avatar"`
	Capacity int      `yaml:"capacity"`
	Skills   []string `yaml:"skills"`
}

type SprintFixture struct {
	Ref       int64     `yaml:"ref"`
	Name      string    `yaml:"name"`
	StartDate time.Time `yaml:"start_date"`
	EndDate   time.Time `yaml:"end_date"`
	Status    string    `yaml:"status"`
	Goals     string    `yaml:"goals"`
	TeamID    int64     `yaml:"team_id"`
}

type TaskFixture struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	Role        string   `yaml:"role"`
	Assignee    *int64   `yaml:"assignee"`
	Sprint      *int64   `yaml:"sprint"`
	Estimate    *float64 `yaml:"estimate"`
	Tags        []string `yaml:"tags"`
}

// Result counts what Apply created.
type Result struct {
	Members int
	Sprints int
	Tasks   int
}

// Demo returns the built-in demo fixtures.
func Demo() (Fixtures, error) {
	return Parse(demoFixtures)
}

// Parse decodes a YAML fixture document.
func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	return f, nil
}

// Read decodes fixtures from r.
func Read(r io.Reader) (Fixtures, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Load reads fixtures from path, or the demo set when path is empty.
func Load(path string) (Fixtures, error) {
	if path == "" {
		return Demo()
	}
	f, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Apply creates members, then sprints, then tasks, translating fixture refs
// into store ids. A task referencing an unknown ref keeps it verbatim as a
// dangling reference.
func Apply(ctx context.Context, store storage.Store, f Fixtures) (Result, error) {
	var res Result
	memberIDs := make(map[int64]int64, len(f.Members))
	sprintIDs := make(map[int64]int64, len(f.Sprints))

	for _, m := range f.Members {
		created, err := store.CreateTeamMember(ctx, models.TeamMemberInput{
			Name:     m.Name,
			Role:     models.Role(m.Role),
			Avatar:   m.Avatar,
			Capacity: m.Capacity,
			Skills:   m.Skills,
		})
		if err != nil {
			return res, fmt.Errorf("seed member %q: %w", m.Name, err)
		}
		memberIDs[m.Ref] = created.ID
		res.Members++
	}

	for _, sp := range f.Sprints {
		created, err := store.CreateSprint(ctx, models.SprintInput{
			Name:      sp.Name,
			StartDate: sp.StartDate,
			EndDate:   sp.EndDate,
			Status:    models.SprintStatus(sp.Status),
			Goals:     sp.Goals,
			TeamID:    sp.TeamID,
		})
		if err != nil {
			return res, fmt.Errorf("seed sprint %q: %w", sp.Name, err)
		}
		sprintIDs[sp.Ref] = created.ID
		res.Sprints++
	}

	for _, t := range f.Tasks {
		_, err := store.CreateTask(ctx, models.TaskInput{
			Title:       t.Title,
			Description: t.Description,
			Status:      models.Status(t.Status),
			Priority:    models.Priority(t.Priority),
			Role:        models.Role(t.Role),
			AssigneeID:  resolve(t.Assignee, memberIDs),
			SprintID:    resolve(t.Sprint, sprintIDs),
			Estimate:    t.Estimate,
			Tags:        t.Tags,
		})
		if err != nil {
			return res, fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		res.Tasks++
	}
	return res, nil
}

func resolve(ref *int64, ids map[int64]int64) models.Ref {
	if ref == nil {
		return models.Ref{}
	}
	if id, ok := ids[*ref]; ok {
		return models.RefTo(id)
	}
	return models.RefTo(*ref)
}
