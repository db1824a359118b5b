package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pmboard/internal/models"
	"pmboard/internal/storage"
)

// Store wraps access to the SQLite database and exposes the entity store contract.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    storage.Clock
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(clock storage.Clock) Option {
	return func(s *Store) { s.now = clock }
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger, now: storage.UTCClock}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// No foreign keys: deleting a sprint or member leaves
// task references dangling rather than cascading.
func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS team_members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            capacity INTEGER NOT NULL CHECK (capacity > 0),
            skills TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sprints (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            start_date DATETIME NOT NULL,
            end_date DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'planned',
            goals TEXT NOT NULL DEFAULT '',
            team_id INTEGER NOT NULL DEFAULT 1,
            version INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'todo',
            priority TEXT NOT NULL DEFAULT 'medium',
            role TEXT NOT NULL DEFAULT 'dev',
            assignee_id INTEGER,
            sprint_id INTEGER,
            estimate REAL,
            tags TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// unavailable tags a driver failure with storage.ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s with id %d: %w", entity, id, storage.ErrNotFound)
}

// inTx runs fn in one transaction. Transactions begin IMMEDIATE, so a
// read-merge-write inside fn cannot interleave with another writer.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// versionGuard narrows an update to the expected version when the caller
// asked for one. Without it the update is last-write-wins.
func versionGuard(expected *int64) string {
	if expected == nil {
		return ` WHERE id = :id`
	}
	return ` WHERE id = :id AND version = :prev_version`
}

// checkAffected turns a zero-row update into NotFound or Conflict.
func checkAffected(ctx context.Context, q sqlx.QueryerContext, res sql.Result, table, entity string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, id); err != nil {
		return unavailable("check "+entity, err)
	}
	if !exists {
		return notFound(entity, id)
	}
	return fmt.Errorf("%s with id %d changed concurrently: %w", entity, id, storage.ErrConflict)
}

const taskColumns = `id, title, description, status, priority, role, assignee_id, sprint_id, estimate, tags, version, created_at, updated_at`

// ListTasks returns all tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+taskColumns+` FROM tasks ORDER BY id`); err != nil {
		return nil, unavailable("list tasks", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, fromTaskRow(r))
	}
	return tasks, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q sqlx.QueryerContext, id int64) (models.Task, error) {
	var r taskRow
	err := sqlx.GetContext(ctx, q, &r, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, notFound("task", id)
	}
	if err != nil {
		return models.Task{}, unavailable("get task", err)
	}
	return fromTaskRow(r), nil
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	in.Normalize()
	if err := models.Validate(in); err != nil {
		return models.Task{}, err
	}
	t := in.Task()
	if err := models.CheckTask(t); err != nil {
		return models.Task{}, err
	}
	now := s.now()
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now

	row, err := toTaskRow(t)
	if err != nil {
		return models.Task{}, err
	}
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO tasks(title, description, status, priority, role, assignee_id, sprint_id, estimate, tags, version, created_at, updated_at)
        VALUES(:title, :description, :status, :priority, :role, :assignee_id, :sprint_id, :estimate, :tags, :version, :created_at, :updated_at)`, row)
	if err != nil {
		return models.Task{}, unavailable("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, unavailable("task id", err)
	}
	s.logger.Debug("task created", slog.Int64("id", id))
	return s.GetTask(ctx, id)
}

// UpdateTask merges patch over the stored task and bumps its version.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	if err := models.Validate(patch); err != nil {
		return models.Task{}, err
	}

	var out models.Task
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
			return err
		}
		next := patch.Apply(current)
		if err := models.CheckTask(next); err != nil {
			return err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())

		row, err := toTaskRow(next)
		if err != nil {
			return err
		}
		res, err := tx.NamedExecContext(ctx, `UPDATE tasks SET title = :title, description = :description, status = :status,
        priority = :priority, role = :role, assignee_id = :assignee_id, sprint_id = :sprint_id, estimate = :estimate,
        tags = :tags, version = :version, updated_at = :updated_at`+versionGuard(patch.ExpectedVersion), struct {
			taskRow
			PrevVersion int64 `db:"prev_version"`
		}{row, current.Version})
		if err != nil {
			return unavailable("update task", err)
		}
		if err := checkAffected(ctx, tx, res, "tasks", "task", id); err != nil {
			return err
		}
		out, err = getTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return out, nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, unavailable("delete task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("rows affected", err)
	}
	if affected == 0 {
		return false, notFound("task", id)
	}
	return true, nil
}

const sprintColumns = `id, name, start_date, end_date, status, goals, team_id, version, created_at, updated_at`

// ListSprints returns all sprints ordered by id.
func (s *Store) ListSprints(ctx context.Context) ([]models.Sprint, error) {
	var rows []sprintRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+sprintColumns+` FROM sprints ORDER BY id`); err != nil {
		return nil, unavailable("list sprints", err)
	}
	sprints := make([]models.Sprint, 0, len(rows))
	for _, r := range rows {
		sprints = append(sprints, fromSprintRow(r))
	}
	return sprints, nil
}

// GetSprint fetches a single sprint by id.
func (s *Store) GetSprint(ctx context.Context, id int64) (models.Sprint, error) {
	return getSprint(ctx, s.db, id)
}

func getSprint(ctx context.Context, q sqlx.QueryerContext, id int64) (models.Sprint, error) {
	var r sprintRow
	err := sqlx.GetContext(ctx, q, &r, `SELECT `+sprintColumns+` FROM sprints WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sprint{}, notFound("sprint", id)
	}
	if err != nil {
		return models.Sprint{}, unavailable("get sprint", err)
	}
	return fromSprintRow(r), nil
}

// CreateSprint persists a new sprint.
func (s *Store) CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error) {
	in.Normalize()
	if err := models.Validate(in); err != nil {
		return models.Sprint{}, err
	}
	sp := in.Sprint()
	if err := models.CheckSprint(sp); err != nil {
		return models.Sprint{}, err
	}
	now := s.now()
	sp.Version = 1
	sp.CreatedAt, sp.UpdatedAt = now, now

	res, err := s.db.NamedExecContext(ctx, `INSERT INTO sprints(name, start_date, end_date, status, goals, team_id, version, created_at, updated_at)
        VALUES(:name, :start_date, :end_date, :status, :goals, :team_id, :version, :created_at, :updated_at)`, toSprintRow(sp))
	if err != nil {
		return models.Sprint{}, unavailable("insert sprint", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Sprint{}, unavailable("sprint id", err)
	}
	s.logger.Debug("sprint created", slog.Int64("id", id))
	return s.GetSprint(ctx, id)
}

// UpdateSprint merges patch over the stored sprint.
func (s *Store) UpdateSprint(ctx context.Context, id int64, patch models.SprintPatch) (models.Sprint, error) {
	if err := models.Validate(patch); err != nil {
		return models.Sprint{}, err
	}

	var out models.Sprint
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getSprint(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
			return err
		}
		next := patch.Apply(current)
		if err := models.CheckSprint(next); err != nil {
			return err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())

		res, err := tx.NamedExecContext(ctx, `UPDATE sprints SET name = :name, start_date = :start_date, end_date = :end_date,
        status = :status, goals = :goals, team_id = :team_id, version = :version, updated_at = :updated_at`+versionGuard(patch.ExpectedVersion), struct {
			sprintRow
			PrevVersion int64 `db:"prev_version"`
		}{toSprintRow(next), current.Version})
		if err != nil {
			return unavailable("update sprint", err)
		}
		if err := checkAffected(ctx, tx, res, "sprints", "sprint", id); err != nil {
			return err
		}
		out, err = getSprint(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Sprint{}, err
	}
	return out, nil
}

// DeleteSprint removes a sprint; tasks keep their sprint reference.
func (s *Store) DeleteSprint(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sprints WHERE id = ?`, id)
	if err != nil {
		return false, unavailable("delete sprint", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("rows affected", err)
	}
	if affected == 0 {
		return false, notFound("sprint", id)
	}
	return true, nil
}

const memberColumns = `id, name, role, avatar, capacity, skills, version, created_at, updated_at`

// ListTeamMembers returns all members ordered by id.
func (s *Store) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	var rows []memberRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+memberColumns+` FROM team_members ORDER BY id`); err != nil {
		return nil, unavailable("list team members", err)
	}
	members := make([]models.TeamMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, fromMemberRow(r))
	}
	return members, nil
}

// GetTeamMember fetches a single member by id.
func (s *Store) GetTeamMember(ctx context.Context, id int64) (models.TeamMember, error) {
	return getTeamMember(ctx, s.db, id)
}

func getTeamMember(ctx context.Context, q sqlx.QueryerContext, id int64) (models.TeamMember, error) {
	var r memberRow
	err := sqlx.GetContext(ctx, q, &r, `SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TeamMember{}, notFound("team member", id)
	}
	if err != nil {
		return models.TeamMember{}, unavailable("get team member", err)
	}
	return fromMemberRow(r), nil
}

// CreateTeamMember persists a new member.
func (s *Store) CreateTeamMember(ctx context.Context, in models.TeamMemberInput) (models.TeamMember, error) {
	if err := models.Validate(in); err != nil {
		return models.TeamMember{}, err
	}
	m := in.TeamMember()
	if err := models.CheckTeamMember(m); err != nil {
		return models.TeamMember{}, err
	}
	now := s.now()
	m.Version = 1
	m.CreatedAt, m.UpdatedAt = now, now

	row, err := toMemberRow(m)
	if err != nil {
		return models.TeamMember{}, err
	}
	res, err := s.db.NamedExecContext(ctx, `INSERT INTO team_members(name, role, avatar, capacity, skills, version, created_at, updated_at)
        VALUES(:name, :role, :avatar, :capacity, :skills, :version, :created_at, :updated_at)`, row)
	if err != nil {
		return models.TeamMember{}, unavailable("insert team member", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TeamMember{}, unavailable("team member id", err)
	}
	s.logger.Debug("team member created", slog.Int64("id", id))
	return s.GetTeamMember(ctx, id)
}

// UpdateTeamMember merges patch over the stored member.
func (s *Store) UpdateTeamMember(ctx context.Context, id int64, patch models.TeamMemberPatch) (models.TeamMember, error) {
	if err := models.Validate(patch); err != nil {
		return models.TeamMember{}, err
	}

	var out models.TeamMember
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getTeamMember(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
			return err
		}
		next := patch.Apply(current)
		if err := models.CheckTeamMember(next); err != nil {
			return err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())

		row, err := toMemberRow(next)
		if err != nil {
			return err
		}
		res, err := tx.NamedExecContext(ctx, `UPDATE team_members SET name = :name, role = :role, avatar = :avatar,
        capacity = :capacity, skills = :skills, version = :version, updated_at = :updated_at`+versionGuard(patch.ExpectedVersion), struct {
			memberRow
			PrevVersion int64 `db:"prev_version"`
		}{row, current.Version})
		if err != nil {
			return unavailable("update team member", err)
		}
		if err := checkAffected(ctx, tx, res, "team_members", "team member", id); err != nil {
			return err
		}
		out, err = getTeamMember(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.TeamMember{}, err
	}
	return out, nil
}

// DeleteTeamMember removes a member; assigned tasks keep the reference.
func (s *Store) DeleteTeamMember(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return false, unavailable("delete team member", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("rows affected", err)
	}
	if affected == 0 {
		return false, notFound("team member", id)
	}
	return true, nil
}
