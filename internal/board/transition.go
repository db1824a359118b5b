package board

import (
	"context"
	"fmt"
	"log/slog"

	"pmboard/internal/models"
	"pmboard/internal/storage"
)

// Notice is a user-facing message produced by a board action.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifier delivers notices to whoever is presenting the board.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notice", slog.String("level", n.Level), slog.String("message", n.Message))
}

// Handler applies status moves through a task store.
type Handler struct {
	store    storage.TaskStore
	notifier Notifier
}

// NewHandler returns a Handler. A nil notifier logs to slog.Default.
func NewHandler(store storage.TaskStore, notifier Notifier) *Handler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Handler{store: store, notifier: notifier}
}

// Transition moves task to status. Any status is reachable from any other.
// Moving to the current status is a no-op: nothing is written, no notice is
// sent and changed is false. On store failure the error is returned as-is
// and task is left untouched for the caller to reconcile.
func (h *Handler) Transition(ctx context.Context, task models.Task, status models.Status) (updated models.Task, changed bool, err error) {
	if !status.Valid() {
		return task, false, fmt.Errorf("%w: unknown task status %q", models.ErrInvalidArgument, status)
	}
	if task.Status == status {
		return task, false, nil
	}

	updated, err = h.store.UpdateTask(ctx, task.ID, models.TaskPatch{Status: &status})
	if err != nil {
		return task, false, fmt.Errorf("move task %d: %w", task.ID, err)
	}

	h.notifier.Notify(ctx, Notice{Level: "success", Message: "Task moved to " + ColumnTitle(status)})
	return updated, true, nil
}

// Move loads the task by id and transitions it.
func (h *Handler) Move(ctx context.Context, id int64, status models.Status) (models.Task, bool, error) {
	task, err := h.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, false, err
	}
	return h.Transition(ctx, task, status)
}
