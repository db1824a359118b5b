package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pmboard/internal/models"
)

var _ Store = (*Instrumented)(nil)

// Instrumented wraps a Store and records per-operation counters and latency.
type Instrumented struct {
	next     Store
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument registers store metrics with reg and returns a decorating store.
func Instrument(next Store, reg prometheus.Registerer) *Instrumented {
	factory := promauto.With(reg)
	return &Instrumented{
		next: next,
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmboard_store_operations_total",
			Help: "Entity store operations by entity, operation and result",
		}, []string{"entity", "op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pmboard_store_operation_duration_seconds",
			Help:    "Entity store operation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"entity", "op"}),
	}
}

// track starts timing an operation; the returned func records its outcome.
func (s *Instrumented) track(entity, op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		s.duration.WithLabelValues(entity, op).Observe(time.Since(start).Seconds())
		s.ops.WithLabelValues(entity, op, resultLabel(*err)).Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}

func (s *Instrumented) ListTasks(ctx context.Context) (out []models.Task, err error) {
	defer s.track("task", "list")(&err)
	return s.next.ListTasks(ctx)
}

func (s *Instrumented) GetTask(ctx context.Context, id int64) (out models.Task, err error) {
	defer s.track("task", "get")(&err)
	return s.next.GetTask(ctx, id)
}

func (s *Instrumented) CreateTask(ctx context.Context, in models.TaskInput) (out models.Task, err error) {
	defer s.track("task", "create")(&err)
	return s.next.CreateTask(ctx, in)
}

func (s *Instrumented) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (out models.Task, err error) {
	defer s.track("task", "update")(&err)
	return s.next.UpdateTask(ctx, id, patch)
}

func (s *Instrumented) DeleteTask(ctx context.Context, id int64) (ok bool, err error) {
	defer s.track("task", "delete")(&err)
	return s.next.DeleteTask(ctx, id)
}

func (s *Instrumented) ListSprints(ctx context.Context) (out []models.Sprint, err error) {
	defer s.track("sprint", "list")(&err)
	return s.next.ListSprints(ctx)
}

func (s *Instrumented) GetSprint(ctx context.Context, id int64) (out models.Sprint, err error) {
	defer s.track("sprint", "get")(&err)
	return s.next.GetSprint(ctx, id)
}

func (s *Instrumented) CreateSprint(ctx context.Context, in models.SprintInput) (out models.Sprint, err error) {
	defer s.track("sprint", "create")(&err)
	return s.next.CreateSprint(ctx, in)
}

func (s *Instrumented) UpdateSprint(ctx context.Context, id int64, patch models.SprintPatch) (out models.Sprint, err error) {
	defer s.track("sprint", "update")(&err)
	return s.next.UpdateSprint(ctx, id, patch)
}

func (s *Instrumented) DeleteSprint(ctx context.Context, id int64) (ok bool, err error) {
	defer s.track("sprint", "delete")(&err)
	return s.next.DeleteSprint(ctx, id)
}

func (s *Instrumented) ListTeamMembers(ctx context.Context) (out []models.TeamMember, err error) {
	defer s.track("member", "list")(&err)
	return s.next.ListTeamMembers(ctx)
}

func (s *Instrumented) GetTeamMember(ctx context.Context, id int64) (out models.TeamMember, err error) {
	defer s.track("member", "get")(&err)
	return s.next.GetTeamMember(ctx, id)
}

func (s *Instrumented) CreateTeamMember(ctx context.Context, in models.TeamMemberInput) (out models.TeamMember, err error) {
	defer s.track("member", "create")(&err)
	return s.next.CreateTeamMember(ctx, in)
}

func (s *Instrumented) UpdateTeamMember(ctx context.Context, id int64, patch models.TeamMemberPatch) (out models.TeamMember, err error) {
	defer s.track("member", "update")(&err)
	return s.next.UpdateTeamMember(ctx, id, patch)
}

func (s *Instrumented) DeleteTeamMember(ctx context.Context, id int64) (ok bool, err error) {
	defer s.track("member", "delete")(&err)
	return s.next.DeleteTeamMember(ctx, id)
}
