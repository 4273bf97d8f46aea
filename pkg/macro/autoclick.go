package macro

import (
	"context"
	"sync"
	"time"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto/input"
)

// DefaultClickInterval 连点间隔
const DefaultClickInterval = 10 * time.Millisecond

// AutoClicker 在当前鼠标位置持续左键点击
type AutoClicker struct {
	driver   input.Driver
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	clicks int
}

// NewAutoClicker 创建连点器，interval <= 0 时使用默认间隔
func NewAutoClicker(driver input.Driver, interval time.Duration) *AutoClicker {
	if interval <= 0 {
		interval = DefaultClickInterval
	}
	return &AutoClicker{driver: driver, interval: interval}
}

// Active 是否正在连点
func (a *AutoClicker) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// Clicks 最近一次启动以来的点击次数
func (a *AutoClicker) Clicks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clicks
}

// Start 开始连点，已在运行时返回 false
func (a *AutoClicker) Start() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.clicks = 0

	go a.loop(ctx, a.done)
	logger.Info("连点器已启动")
	return true
}

// Stop 停止连点并等待循环退出，未运行时返回 false
func (a *AutoClicker) Stop(timeout time.Duration) bool {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("连点器未在 %v 内退出", timeout)
	}
	logger.Info("连点器已停止，共点击 %d 次", a.Clicks())
	return true
}

func (a *AutoClicker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.driver.Click("left")
			a.mu.Lock()
			a.clicks++
			a.mu.Unlock()
		}
	}
}
