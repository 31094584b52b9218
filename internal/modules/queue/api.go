package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/reusedev/draw-studio/internal/modules/logs"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrQueueClosed = errors.New("task queue is closed")
)

type Task interface {
	Execute(ctx context.Context)
}

// TaskQueue runs pushed tasks, each in its own goroutine, until the context
// passed to Run is done.
type TaskQueue struct {
	tasks     chan Task
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewTaskQueue(size int) *TaskQueue {
	return &TaskQueue{tasks: make(chan Task, size)}
}

// Push never blocks.
func (q *TaskQueue) Push(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consumes the queue in the background. On ctx done the queue stops
// accepting tasks; every task already accepted still runs to completion and wg
// is released once they finish. Tasks get ctx's values but not its
// cancellation.
func (q *TaskQueue) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go q.exe(ctx, wg)
}

func (q *TaskQueue) exe(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	taskCtx := context.WithoutCancel(ctx)
	execute := func(task Task) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task.Execute(taskCtx)
		}()
	}
	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			execute(task)
		case <-ctx.Done():
			q.close()
			// 关闭后把剩余任务执行完
			for task := range q.tasks {
				execute(task)
			}
			return
		}
	}
}

func (q *TaskQueue) close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
		logs.Logger.Info().Msg("Image task queue closed")
	})
}
