package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecomputer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRecomputer) RecomputeAll(ctx context.Context, now time.Time) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 3, f.err
}

func TestRunHotnessRecompute(t *testing.T) {
	r := &fakeRecomputer{}
	count, err := RunHotnessRecompute(r, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	r.err = errors.New("db down")
	_, err = RunHotnessRecompute(r, time.Second)
	assert.EqualError(t, err, "db down")
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestSchedulerRunsJob(t *testing.T) {
	r := &fakeRecomputer{}
	var after atomic.Int32
	s := NewScheduler()
	require.NoError(t, s.AddHotnessRecompute("* * * * * *", r, time.Second, func() { after.Add(1) }))
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 && after.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler()
	assert.Error(t, s.AddHotnessRecompute("not a schedule", &fakeRecomputer{}, time.Second, nil))
}
