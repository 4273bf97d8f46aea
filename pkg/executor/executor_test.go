package executor

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestSerialExecution(t *testing.T) {
	e := New("test", 8)
	defer e.Close()

	var mu sync.Mutex
	var order []int
	var tasks []*Task
	for i := 0; i < 5; i++ {
		i := i
		task, err := e.Submit("job", func(ctx context.Context) error {
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("提交失败: %v", err)
		}
		tasks = append(tasks, task)
	}

	for _, task := range tasks {
		if err := task.Wait(); err != nil {
			t.Errorf("任务失败: %v", err)
		}
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("任务应按提交顺序串行执行: %v", order)
		}
	}
}

func TestTrySubmitBusy(t *testing.T) {
	e := New("test", 4)
	defer e.Close()

	release := make(chan struct{})
	first, err := e.TrySubmit("long", func(ctx context.Context) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.TrySubmit("second", func(ctx context.Context) error { return nil }); !errors.Is(err, ErrBusy) {
		t.Errorf("忙时应返回 ErrBusy, got %v", err)
	}

	status, _, n := e.GetStatus()
	if status != StatusBusy || n != 1 {
		t.Errorf("状态错误: %s %d", status, n)
	}

	close(release)
	first.Wait()

	if !e.WaitIdle(time.Second) {
		t.Fatal("任务结束后应回到空闲")
	}
	if status, _, _ := e.GetStatus(); status != StatusIdle {
		t.Errorf("状态应为 IDLE, got %s", status)
	}
}

func TestCancelTask(t *testing.T) {
	e := New("test", 4)
	defer e.Close()

	started := make(chan struct{})
	task, _ := e.Submit("wait", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	if !e.CancelTask(task.ID) {
		t.Fatal("取消运行中的任务应返回 true")
	}

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("取消后任务未及时结束")
	}
	if !errors.Is(task.Err(), context.Canceled) {
		t.Errorf("任务错误应为 context.Canceled, got %v", task.Err())
	}
	if e.CancelTask(task.ID) {
		t.Error("已结束的任务不应再次取消成功")
	}
}

func TestCancelAllSkipsQueued(t *testing.T) {
	e := New("test", 4)
	defer e.Close()

	started := make(chan struct{})
	ran := false
	first, _ := e.Submit("block", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	})
	second, _ := e.Submit("queued", func(ctx context.Context) error {
		ran = true
		return nil
	})
	<-started

	if n := e.CancelAll(); n != 2 {
		t.Errorf("应取消 2 个任务, got %d", n)
	}
	first.Wait()
	if err := second.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("排队中的任务应以取消结束, got %v", err)
	}
	if ran {
		t.Error("已取消的排队任务不应执行")
	}
}

func TestPanicRecovered(t *testing.T) {
	e := New("test", 1)
	defer e.Close()

	task, _ := e.Submit("panic", func(ctx context.Context) error {
		panic("boom")
	})
	if err := task.Wait(); err == nil {
		t.Error("panic 应转换为错误")
	}

	// 执行器仍可继续工作
	next, err := e.Submit("after", func(ctx context.Context) error { return nil })
	if err != nil || next.Wait() != nil {
		t.Errorf("panic 后执行器应继续工作: %v", err)
	}
}

func TestClose(t *testing.T) {
	e := New("test", 1)
	e.Close()
	e.Close()

	if _, err := e.Submit("x", func(ctx context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("关闭后提交应返回 ErrClosed, got %v", err)
	}
}

func TestWaitIdleTimeout(t *testing.T) {
	e := New("test", 1)
	release := make(chan struct{})
	e.Submit("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	start := time.Now()
	if e.WaitIdle(30 * time.Millisecond) {
		t.Error("任务未结束时 WaitIdle 应超时")
	}
	if time.Since(start) > time.Second {
		t.Error("WaitIdle 超时不应阻塞过久")
	}

	close(release)
	e.Close()
}

// TestWaitIdleTimeoutNoLeak 超时的等待不留下后台协程
func TestWaitIdleTimeoutNoLeak(t *testing.T) {
	e := New("test", 1)
	defer e.Close()
	release := make(chan struct{})
	task, _ := e.Submit("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		if e.WaitIdle(time.Millisecond) {
			t.Fatal("任务未结束时 WaitIdle 应超时")
		}
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("超时后残留协程: %d → %d", before, after)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.WaitIdleContext(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ctx 取消应返回 context.Canceled, got %v", err)
	}

	close(release)
	task.Wait()
	if !e.WaitIdle(time.Second) {
		t.Error("任务结束后 WaitIdle 应返回 true")
	}
}
