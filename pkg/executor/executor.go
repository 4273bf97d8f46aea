// Package executor 提供单工作协程的任务队列
//
// 每个互斥资源（窗口输入、存档读写）各持有一个 Executor，
// 同一资源上的任务严格串行执行，取消通过任务自身的 context 传递。
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zoeyai/winmacro/internal/logger"
)

var (
	// ErrBusy 已有任务在执行或排队
	ErrBusy = errors.New("执行器忙")
	// ErrClosed 执行器已关闭
	ErrClosed = errors.New("执行器已关闭")
	// ErrQueueFull 队列已满
	ErrQueueFull = errors.New("任务队列已满")
)

// Status 执行器状态
type Status string

const (
	StatusIdle Status = "IDLE"
	StatusBusy Status = "BUSY"
)

// Job 任务函数，应在 ctx 取消后尽快返回
type Job func(ctx context.Context) error

// Task 已提交的任务
type Task struct {
	ID        string
	Name      string
	SubmitAt  time.Time
	StartedAt time.Time

	job    Job
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done 任务结束时关闭
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait 等待任务结束并返回其错误
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Err 任务结束后的错误，未结束时为 nil
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Cancel 取消任务
func (t *Task) Cancel() {
	t.cancel()
}

// TaskInfo 任务信息快照
type TaskInfo struct {
	TaskID    string
	TaskName  string
	StartedAt time.Time
}

// Executor 单工作协程执行器
type Executor struct {
	name  string
	queue chan *Task

	mu      sync.Mutex
	pending map[string]*Task // 排队中与执行中的任务
	current *Task
	closed  bool
	idle    chan struct{} // 队列为空时已关闭

	wg sync.WaitGroup
}

// New 创建执行器并启动工作协程
func New(name string, capacity int) *Executor {
	if capacity <= 0 {
		capacity = 16
	}
	e := &Executor{
		name:    name,
		queue:   make(chan *Task, capacity),
		pending: make(map[string]*Task),
	}
	e.idle = make(chan struct{})
	close(e.idle)

	e.wg.Add(1)
	go e.loop()
	return e
}

// Name 执行器名称
func (e *Executor) Name() string {
	return e.name
}

// Submit 排队提交任务
func (e *Executor) Submit(name string, job Job) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enqueueLocked(name, job)
}

// TrySubmit 仅在执行器空闲时提交，否则返回 ErrBusy
func (e *Executor) TrySubmit(name string, job Job) (*Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) > 0 {
		return nil, ErrBusy
	}
	return e.enqueueLocked(name, job)
}

func (e *Executor) enqueueLocked(name string, job Job) (*Task, error) {
	if e.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		ID:       uuid.NewString(),
		Name:     name,
		SubmitAt: time.Now(),
		job:      job,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	select {
	case e.queue <- t:
	default:
		cancel()
		return nil, ErrQueueFull
	}

	if len(e.pending) == 0 {
		e.idle = make(chan struct{})
	}
	e.pending[t.ID] = t
	logger.Debug("[%s] 任务入队 %s id=%s", e.name, name, t.ID)
	return t, nil
}

// CancelTask 取消任务
func (e *Executor) CancelTask(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.pending[taskID]; ok {
		t.cancel()
		return true
	}
	return false
}

// CancelAll 取消所有排队与执行中的任务，返回取消的数量
func (e *Executor) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.pending {
		t.cancel()
	}
	return len(e.pending)
}

// GetStatus 获取执行器状态
func (e *Executor) GetStatus() (Status, *TaskInfo, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) == 0 {
		return StatusIdle, nil, 0
	}

	var info *TaskInfo
	if e.current != nil {
		info = &TaskInfo{
			TaskID:    e.current.ID,
			TaskName:  e.current.Name,
			StartedAt: e.current.StartedAt,
		}
	}
	return StatusBusy, info, len(e.pending)
}

// WaitIdle 等待队列清空，超时返回 false
func (e *Executor) WaitIdle(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.WaitIdleContext(ctx) == nil
}

// WaitIdleContext 等待队列清空或 ctx 结束
func (e *Executor) WaitIdleContext(ctx context.Context) error {
	e.mu.Lock()
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 停止接收任务，取消剩余任务并等待工作协程退出
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, t := range e.pending {
		t.cancel()
	}
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Executor) loop() {
	defer e.wg.Done()

	for t := range e.queue {
		e.run(t)
	}
}

func (e *Executor) run(t *Task) {
	e.mu.Lock()
	e.current = t
	t.StartedAt = time.Now()
	e.mu.Unlock()

	defer func() {
		t.cancel()
		close(t.done)

		e.mu.Lock()
		delete(e.pending, t.ID)
		e.current = nil
		if len(e.pending) == 0 {
			close(e.idle)
		}
		e.mu.Unlock()
	}()

	// 检查是否已被取消
	if err := t.ctx.Err(); err != nil {
		logger.Warn("[%s] 任务在开始前被取消 %s", e.name, t.Name)
		t.err = err
		return
	}

	logger.Debug("[%s] 开始执行 %s id=%s", e.name, t.Name, t.ID)
	t.err = e.invoke(t)
	logger.Debug("[%s] 执行结束 %s duration=%v err=%v", e.name, t.Name, time.Since(t.StartedAt), t.err)
}

func (e *Executor) invoke(t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[%s] 任务 %s panic: %v", e.name, t.Name, r)
			err = fmt.Errorf("任务 panic: %v", r)
		}
	}()
	return t.job(t.ctx)
}
