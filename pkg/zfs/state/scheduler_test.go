package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schedulerDoc = `
pools:
  - name: myzpool
    properties:
      autoexpand: false
    scrub: "0 3 * * 0"
`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewSchedulerRejectsZeroInterval(t *testing.T) {
	e, _ := newEngine(t)
	_, err := NewScheduler(e, nil, "state.yml", 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StateScheduleFailed))
}

func TestSchedulerRunOnce(t *testing.T) {
	e, runner := newEngine(t)
	runner.On("zpool list myzpool", ok("myzpool\t1.81T"))
	runner.On("zpool get", ok(poolGet("on")))

	s, err := NewScheduler(e, nil, writeDoc(t, schedulerDoc), time.Hour, nil)
	require.NoError(t, err)

	reports, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Result, reports[0].Comment)
	assert.Equal(t, []string{"zpool set autoexpand=off myzpool"}, mutations(runner))

	last, at, lastErr := s.Last()
	assert.NoError(t, lastErr)
	assert.Equal(t, reports, last)
	assert.False(t, at.IsZero())
}

func TestSchedulerRunOnceUnreadable(t *testing.T) {
	e, runner := newEngine(t)
	s, err := NewScheduler(e, nil, filepath.Join(t.TempDir(), "missing.yml"), time.Hour, nil)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StateReadFailed))
	assert.Empty(t, runner.Calls())

	last, _, lastErr := s.Last()
	assert.Nil(t, last)
	assert.Error(t, lastErr)
}

func TestSchedulerStartRegistersJobs(t *testing.T) {
	e, runner := newEngine(t)
	runner.On("zpool list myzpool", ok("myzpool\t1.81T"))
	runner.On("zpool get", ok(poolGet("off")))

	s, err := NewScheduler(e, e.pools, writeDoc(t, schedulerDoc), time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	var names []string
	for _, j := range s.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"zstate-apply", "zstate-scrub-myzpool"}, names)

	// The apply job runs immediately.
	assert.Eventually(t, func() bool {
		_, at, _ := s.Last()
		return !at.IsZero()
	}, 5*time.Second, 10*time.Millisecond)
}
