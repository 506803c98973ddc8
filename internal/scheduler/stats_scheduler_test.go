package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStats struct {
	reconciled int
	err        error
}

func (f *fakeStats) RecomputeBusinessStats(context.Context, uint) error { return nil }

func (f *fakeStats) ReconcileAllStats(context.Context) (int, error) {
	f.reconciled++
	return 3, f.err
}

func TestStatsScheduler_InvalidSchedule(t *testing.T) {
	s := NewStatsScheduler(&fakeStats{}, "every now and then")
	assert.Error(t, s.Start())
}

func TestStatsScheduler_StartStop(t *testing.T) {
	stats := &fakeStats{}
	s := NewStatsScheduler(stats, "0 * * * *")
	assert.NoError(t, s.Start())
	s.Stop()
}

func TestStatsScheduler_Reconcile(t *testing.T) {
	stats := &fakeStats{}
	s := NewStatsScheduler(stats, "0 * * * *")

	s.reconcile()
	assert.Equal(t, 1, stats.reconciled)

	stats.err = errors.New("db gone")
	s.reconcile()
	assert.Equal(t, 2, stats.reconciled)
}
