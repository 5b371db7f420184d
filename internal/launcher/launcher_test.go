package launcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/sweep"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	mu       sync.Mutex
	seen     map[int]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	fail     map[int]bool
}

func (f *fakeRunner) Run(ctx context.Context, stageName string, runNr int) (*stage.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.seen[runNr] = true
	f.mu.Unlock()

	if f.fail[runNr] {
		return nil, errors.New("collaborator exited 1")
	}
	return &stage.Result{RunNr: runNr, Stage: stageName}, nil
}

func TestLauncher_RunsEveryRunOnce(t *testing.T) {
	fr := &fakeRunner{seen: map[int]bool{}}
	runs, err := Range(1, 12, 12)
	require.NoError(t, err)

	outcomes := New(fr, 3, nil).Run(context.Background(), "simulate", runs)

	require.Len(t, outcomes, 12)
	for i, o := range outcomes {
		assert.Equal(t, i+1, o.RunNr)
		assert.NoError(t, o.Err)
		assert.Equal(t, "simulate", o.Result.Stage)
	}
	assert.Len(t, fr.seen, 12)
	assert.LessOrEqual(t, fr.peak.Load(), int32(3))
}

func TestLauncher_FailuresAreIsolated(t *testing.T) {
	fr := &fakeRunner{seen: map[int]bool{}, fail: map[int]bool{2: true, 5: true}}

	outcomes := New(fr, 2, nil).Run(context.Background(), "train", []int{1, 2, 3, 4, 5, 6})

	failed := Failed(outcomes)
	require.Len(t, failed, 2)
	assert.Equal(t, 2, failed[0].RunNr)
	assert.Equal(t, 5, failed[1].RunNr)
	assert.Len(t, fr.seen, 6)
}

func TestRange(t *testing.T) {
	runs, err := Range(3, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, runs)

	_, err = Range(0, 2, 5)
	assert.ErrorIs(t, err, sweep.ErrValidation)
	_, err = Range(2, 6, 5)
	assert.ErrorIs(t, err, sweep.ErrValidation)
	_, err = Range(4, 3, 5)
	assert.ErrorIs(t, err, sweep.ErrValidation)
}
