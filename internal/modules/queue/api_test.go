package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countTask struct {
	n *atomic.Int32
}

func (c countTask) Execute(context.Context) {
	c.n.Add(1)
}

// liveTask counts executions that saw a context still usable.
type liveTask struct {
	live *atomic.Int32
}

func (l liveTask) Execute(ctx context.Context) {
	if ctx.Err() == nil {
		l.live.Add(1)
	}
}

func TestTaskQueue(t *testing.T) {
	q := NewTaskQueue(2)
	var n atomic.Int32
	require.NoError(t, q.Push(countTask{&n}))
	require.NoError(t, q.Push(countTask{&n}))
	require.ErrorIs(t, q.Push(countTask{&n}), ErrQueueFull)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	q.Run(ctx, wg)
	require.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
	require.ErrorIs(t, q.Push(countTask{&n}), ErrQueueClosed)
}

func TestTaskQueueDrainsAfterShutdown(t *testing.T) {
	q := NewTaskQueue(3)
	var live atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(liveTask{&live}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wg := &sync.WaitGroup{}
	q.Run(ctx, wg)
	wg.Wait()

	require.Equal(t, int32(3), live.Load())
	require.ErrorIs(t, q.Push(liveTask{&live}), ErrQueueClosed)
}
