package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddTicker_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	var last atomic.Int64
	s.AddTicker("tick", 20*time.Millisecond, func(now time.Time) {
		atomic.AddInt32(&count, 1)
		last.Store(now.UnixNano())
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
	assert.Positive(t, last.Load(), "tasks receive the tick time")
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func(time.Time) { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func(time.Time) { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestRemove_Ticker(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, func(time.Time) { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(10 * time.Millisecond)
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "ticker must stop after Remove")
}

func TestRemove_NonExistent(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()
	s.Remove("nope")
}

func TestStop_StopsAllTickers(t *testing.T) {
	s := New(zap.NewNop())

	var c1, c2 int32
	s.AddTicker("a", 20*time.Millisecond, func(time.Time) { atomic.AddInt32(&c1, 1) })
	s.AddTicker("b", 20*time.Millisecond, func(time.Time) { atomic.AddInt32(&c2, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))
}

func TestStop_Idempotent(t *testing.T) {
	s := New(zap.NewNop())
	s.Stop()
	s.Stop()
}

func TestListTickers(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.Empty(t, s.ListTickers())
	s.AddTicker("beta", time.Hour, func(time.Time) {})
	s.AddTicker("alpha", time.Hour, func(time.Time) {})
	assert.Equal(t, []string{"alpha", "beta"}, s.ListTickers())

	s.Remove("alpha")
	assert.Equal(t, []string{"beta"}, s.ListTickers())
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	s.AddTicker("panic", 20*time.Millisecond, func(time.Time) {
		panic("oops")
	})
	time.Sleep(90 * time.Millisecond)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "panic", tasks[0].Name)
	assert.GreaterOrEqual(t, tasks[0].Panics, int64(2), "ticker keeps running after a panic")
	assert.Equal(t, tasks[0].Runs, tasks[0].Panics)
}
