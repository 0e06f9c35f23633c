// Package workerpool - очередь задач с сохранением порядка для каждого ключа.
// Задачи одного актора выполняются строго по очереди, разных акторов - параллельно.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrClosed    = errors.New("workerpool: pool is shutting down")
	ErrQueueFull = errors.New("workerpool: queue for key is full")
)

// TaskFunc - единица работы. ctx отменяется, если Close не дождался завершения.
type TaskFunc func(ctx context.Context)

// Config holds keyed pool configuration
type Config struct {
	// MaxPendingPerKey ограничивает очередь одного ключа; 0 - без ограничения.
	MaxPendingPerKey int
}

// DefaultConfig returns defaults for a chat bot: a user rarely has more than a few updates in flight.
func DefaultConfig() Config {
	return Config{MaxPendingPerKey: 64}
}

type lane struct {
	tasks []TaskFunc
}

// Pool - пул с отдельной FIFO-очередью на каждый ключ.
// Горутина-обработчик ключа живёт, пока у ключа есть задачи.
type Pool struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	tasksSubmitted int64
	tasksCompleted int64
	tasksPanicked  int64
}

// New creates a keyed pool
func New(cfg Config, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config: cfg,
		logger: logger.Named("workerpool"),
		lanes:  make(map[int64]*lane),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit ставит задачу в очередь ключа.
func (p *Pool) Submit(key int64, fn TaskFunc) error {
	if fn == nil {
		return fmt.Errorf("workerpool: nil task")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	l, running := p.lanes[key]
	if !running {
		l = &lane{}
		p.lanes[key] = l
	}
	if p.config.MaxPendingPerKey > 0 && len(l.tasks) >= p.config.MaxPendingPerKey {
		return ErrQueueFull
	}
	l.tasks = append(l.tasks, fn)
	atomic.AddInt64(&p.tasksSubmitted, 1)

	if !running {
		p.wg.Add(1)
		go p.drain(key, l)
	}
	return nil
}

// drain выполняет задачи ключа по одной, пока очередь не опустеет.
func (p *Pool) drain(key int64, l *lane) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(l.tasks) == 0 {
			delete(p.lanes, key)
			p.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		p.mu.Unlock()

		p.run(key, task)
	}
}

func (p *Pool) run(key int64, task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.tasksPanicked, 1)
			p.logger.Error("task panicked", zap.Int64("key", key), zap.Any("panic", r), zap.Stack("stack"))
		}
		atomic.AddInt64(&p.tasksCompleted, 1)
	}()
	task(p.ctx)
}

// Close перестаёт принимать задачи и ждёт уже поставленные.
// Если ctx истёк раньше, контекст задач отменяется и возвращается ctx.Err().
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.logger.Info("stopping keyed pool")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("keyed pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("keyed pool shutdown timed out")
		return ctx.Err()
	}
}

// Stats returns current pool statistics
type Stats struct {
	TasksSubmitted int64
	TasksCompleted int64
	TasksPanicked  int64
	ActiveKeys     int
	Pending        int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	active := len(p.lanes)
	pending := 0
	for _, l := range p.lanes {
		pending += len(l.tasks)
	}
	p.mu.Unlock()
	return Stats{
		TasksSubmitted: atomic.LoadInt64(&p.tasksSubmitted),
		TasksCompleted: atomic.LoadInt64(&p.tasksCompleted),
		TasksPanicked:  atomic.LoadInt64(&p.tasksPanicked),
		ActiveKeys:     active,
		Pending:        pending,
	}
}
