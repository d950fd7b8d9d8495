package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	*BaseWorker
	runs  atomic.Int64
	fail  bool
	panic bool
}

func newCountingWorker(name string, interval time.Duration, enabled bool) *countingWorker {
	return &countingWorker{BaseWorker: NewBaseWorker(name, interval, enabled)}
}

func (w *countingWorker) Run(_ context.Context) error {
	w.runs.Add(1)
	if w.panic {
		panic("boom")
	}
	if w.fail {
		return assert.AnError
	}
	return nil
}

func TestScheduler_RunsWorkerImmediately(t *testing.T) {
	s := NewScheduler(time.Second)
	w := newCountingWorker("immediate", time.Hour, true)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_SkipsDisabledWorker(t *testing.T) {
	s := NewScheduler(time.Second)
	w := newCountingWorker("disabled", time.Millisecond, false)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, w.runs.Load())
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	s := NewScheduler(time.Second)
	w := newCountingWorker("ticking", 10*time.Millisecond, true)
	s.Register(w)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return w.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_SurvivesPanickingWorker(t *testing.T) {
	s := NewScheduler(time.Second)
	bad := newCountingWorker("panicky", 10*time.Millisecond, true)
	bad.panic = true
	good := newCountingWorker("steady", 10*time.Millisecond, true)
	s.Register(bad)
	s.Register(good)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return good.runs.Load() >= 3 && bad.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_DoubleStartRejected(t *testing.T) {
	s := NewScheduler(time.Second)
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(time.Second)
	assert.Error(t, s.Stop())
}

func TestBaseWorker_HealthTracking(t *testing.T) {
	w := NewBaseWorker("tracked", time.Minute, true)

	w.RecordRun(100 * time.Millisecond)
	w.RecordError(assert.AnError, 300*time.Millisecond)

	h := w.Health()
	assert.Equal(t, int64(2), h.RunCount)
	assert.Equal(t, int64(1), h.ErrorCount)
	assert.Equal(t, assert.AnError, h.LastError)
	assert.Equal(t, 200*time.Millisecond, h.AvgDuration)
	assert.True(t, h.Enabled)

	w.SetEnabled(false)
	assert.False(t, w.Enabled())
}
