package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmboard/internal/models"
	"pmboard/internal/storage"
	"pmboard/internal/storage/memory"
)

func TestNextStampIsStrictlyIncreasing(t *testing.T) {
	prev := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, storage.NextStamp(prev, prev).After(prev))
	assert.True(t, storage.NextStamp(prev, prev.Add(-time.Hour)).After(prev))

	later := prev.Add(time.Minute)
	assert.Equal(t, later, storage.NextStamp(prev, later))
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, storage.CheckVersion(nil, 3))

	v := int64(3)
	assert.NoError(t, storage.CheckVersion(&v, 3))

	v = 2
	err := storage.CheckVersion(&v, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrConflict))
}

func counterValue(t *testing.T, reg *prometheus.Registry, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pmboard_store_operations_total" {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestInstrumentedRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := storage.Instrument(memory.New(), reg)
	ctx := context.Background()

	_, err := store.CreateTask(ctx, models.TaskInput{Title: "Write docs"})
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, models.TaskInput{Title: " "})
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
	_, err = store.GetTask(ctx, 42)
	require.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, 1.0, counterValue(t, reg, map[string]string{"entity": "task", "op": "create", "result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, map[string]string{"entity": "task", "op": "create", "result": "invalid"}))
	assert.Equal(t, 1.0, counterValue(t, reg, map[string]string{"entity": "task", "op": "get", "result": "not_found"}))
	assert.NoError(t, store.Close())
}
