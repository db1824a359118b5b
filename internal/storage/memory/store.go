// Package memory provides an in-process entity store used for offline demo
// mode and tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"pmboard/internal/models"
	"pmboard/internal/storage"
)

// Store keeps all three collections in maps guarded by a single lock.
type Store struct {
	mu      sync.RWMutex
	now     storage.Clock
	logger  *slog.Logger
	tasks   table[models.Task]
	sprints table[models.Sprint]
	members table[models.TeamMember]
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(clock storage.Clock) Option {
	return func(s *Store) { s.now = clock }
}

// WithLogger sets the logger used for mutation tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:     storage.UTCClock,
		logger:  slog.Default(),
		tasks:   newTable[models.Task](),
		sprints: newTable[models.Sprint](),
		members: newTable[models.TeamMember](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op; it satisfies storage.Store.
func (s *Store) Close() error {
	return nil
}

// table is one collection. lastID is the highest id ever issued so deleted
// ids are not handed out again.
type table[T any] struct {
	rows   map[int64]T
	lastID int64
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) nextID() int64 {
	highest := t.lastID
	for id := range t.rows {
		if id > highest {
			highest = id
		}
	}
	t.lastID = highest + 1
	return t.lastID
}

func (t *table[T]) sorted(clone func(T) T) []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(t.rows[id]))
	}
	return out
}

// ctxErr reports a cancelled or expired request the way the SQLite backend
// does, as an unavailable store.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s with id %d: %w", entity, id, storage.ErrNotFound)
}

// ListTasks returns all tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.sorted(models.Task.Clone), nil
}

// GetTask fetches a single task.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks.rows[id]
	if !ok {
		return models.Task{}, notFound("task", id)
	}
	return t.Clone(), nil
}

// CreateTask stores a new task with an assigned id and timestamps.
func (s *Store) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Task{}, err
	}
	in.Normalize()
	if err := models.Validate(in); err != nil {
		return models.Task{}, err
	}
	t := in.Task()
	if err := models.CheckTask(t); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t.ID = s.tasks.nextID()
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks.rows[t.ID] = t
	s.logger.Debug("task created", slog.Int64("id", t.ID))
	return t.Clone(), nil
}

// UpdateTask merges patch over the stored task.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Task{}, err
	}
	if err := models.Validate(patch); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks.rows[id]
	if !ok {
		return models.Task{}, notFound("task", id)
	}
	if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
		return models.Task{}, err
	}
	next := patch.Apply(current)
	if err := models.CheckTask(next); err != nil {
		return models.Task{}, err
	}
	next.ID = id
	next.Version = current.Version + 1
	next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())
	s.tasks.rows[id] = next
	s.logger.Debug("task updated", slog.Int64("id", id), slog.Int64("version", next.Version))
	return next.Clone(), nil
}

// DeleteTask removes a task. References to it are not touched.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks.rows[id]; !ok {
		return false, notFound("task", id)
	}
	delete(s.tasks.rows, id)
	s.logger.Debug("task deleted", slog.Int64("id", id))
	return true, nil
}

// ListSprints returns all sprints ordered by id.
func (s *Store) ListSprints(ctx context.Context) ([]models.Sprint, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sprints.sorted(models.Sprint.Clone), nil
}

func (s *Store) GetSprint(ctx context.Context, id int64) (models.Sprint, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Sprint{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.sprints.rows[id]
	if !ok {
		return models.Sprint{}, notFound("sprint", id)
	}
	return sp.Clone(), nil
}

// CreateSprint stores a new sprint. Several sprints may be active at once.
func (s *Store) CreateSprint(ctx context.Context, in models.SprintInput) (models.Sprint, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Sprint{}, err
	}
	in.Normalize()
	if err := models.Validate(in); err != nil {
		return models.Sprint{}, err
	}
	sp := in.Sprint()
	if err := models.CheckSprint(sp); err != nil {
		return models.Sprint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sp.ID = s.sprints.nextID()
	sp.Version = 1
	sp.CreatedAt, sp.UpdatedAt = now, now
	s.sprints.rows[sp.ID] = sp
	s.logger.Debug("sprint created", slog.Int64("id", sp.ID))
	return sp.Clone(), nil
}

func (s *Store) UpdateSprint(ctx context.Context, id int64, patch models.SprintPatch) (models.Sprint, error) {
	if err := ctxErr(ctx); err != nil {
		return models.Sprint{}, err
	}
	if err := models.Validate(patch); err != nil {
		return models.Sprint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sprints.rows[id]
	if !ok {
		return models.Sprint{}, notFound("sprint", id)
	}
	if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
		return models.Sprint{}, err
	}
	next := patch.Apply(current)
	if err := models.CheckSprint(next); err != nil {
		return models.Sprint{}, err
	}
	next.ID = id
	next.Version = current.Version + 1
	next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())
	s.sprints.rows[id] = next
	s.logger.Debug("sprint updated", slog.Int64("id", id), slog.Int64("version", next.Version))
	return next.Clone(), nil
}

// DeleteSprint removes a sprint; tasks keep their now dangling sprint reference.
func (s *Store) DeleteSprint(ctx context.Context, id int64) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sprints.rows[id]; !ok {
		return false, notFound("sprint", id)
	}
	delete(s.sprints.rows, id)
	s.logger.Debug("sprint deleted", slog.Int64("id", id))
	return true, nil
}

func (s *Store) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members.sorted(models.TeamMember.Clone), nil
}

func (s *Store) GetTeamMember(ctx context.Context, id int64) (models.TeamMember, error) {
	if err := ctxErr(ctx); err != nil {
		return models.TeamMember{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members.rows[id]
	if !ok {
		return models.TeamMember{}, notFound("team member", id)
	}
	return m.Clone(), nil
}

func (s *Store) CreateTeamMember(ctx context.Context, in models.TeamMemberInput) (models.TeamMember, error) {
	if err := ctxErr(ctx); err != nil {
		return models.TeamMember{}, err
	}
	if err := models.Validate(in); err != nil {
		return models.TeamMember{}, err
	}
	m := in.TeamMember()
	if err := models.CheckTeamMember(m); err != nil {
		return models.TeamMember{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	m.ID = s.members.nextID()
	m.Version = 1
	m.CreatedAt, m.UpdatedAt = now, now
	s.members.rows[m.ID] = m
	s.logger.Debug("team member created", slog.Int64("id", m.ID))
	return m.Clone(), nil
}

func (s *Store) UpdateTeamMember(ctx context.Context, id int64, patch models.TeamMemberPatch) (models.TeamMember, error) {
	if err := ctxErr(ctx); err != nil {
		return models.TeamMember{}, err
	}
	if err := models.Validate(patch); err != nil {
		return models.TeamMember{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members.rows[id]
	if !ok {
		return models.TeamMember{}, notFound("team member", id)
	}
	if err := storage.CheckVersion(patch.ExpectedVersion, current.Version); err != nil {
		return models.TeamMember{}, err
	}
	next := patch.Apply(current)
	if err := models.CheckTeamMember(next); err != nil {
		return models.TeamMember{}, err
	}
	next.ID = id
	next.Version = current.Version + 1
	next.UpdatedAt = storage.NextStamp(current.UpdatedAt, s.now())
	s.members.rows[id] = next
	s.logger.Debug("team member updated", slog.Int64("id", id), slog.Int64("version", next.Version))
	return next.Clone(), nil
}

// DeleteTeamMember removes a member; assigned tasks keep the dangling reference.
func (s *Store) DeleteTeamMember(ctx context.Context, id int64) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members.rows[id]; !ok {
		return false, notFound("team member", id)
	}
	delete(s.members.rows, id)
	s.logger.Debug("team member deleted", slog.Int64("id", id))
	return true, nil
}
