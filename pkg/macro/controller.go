package macro

import (
	"time"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/executor"
)

const (
	// EmergencyStopTimeout 紧急停止等待时间
	EmergencyStopTimeout = 500 * time.Millisecond
	// ShutdownTimeout 正常退出等待时间
	ShutdownTimeout = 3 * time.Second
)

// Controller 组合坐标捕获、回放会话、购买宏与连点器
type Controller struct {
	Store    *Store
	Resolver *window.Resolver
	Capturer *Capturer
	Session  *Session
	Buy      *BuyRunner
	Clicker  *AutoClicker

	exec *executor.Executor
}

// NewController 创建控制器，所有输入操作共用一个执行器
func NewController(store *Store, resolver *window.Resolver, replayer input.Replayer, driver input.Driver, opts ...SessionOption) *Controller {
	exec := executor.New("input", 4)
	clicker := NewAutoClicker(driver, DefaultClickInterval)
	return &Controller{
		Store:    store,
		Resolver: resolver,
		Capturer: NewCapturer(store, resolver, driver),
		Session:  NewSession(store, resolver, replayer, exec, opts...),
		Buy:      NewBuyRunner(exec, driver, clicker),
		Clicker:  clicker,
		exec:     exec,
	}
}

// RunBuy 按名称执行购买宏
func (c *Controller) RunBuy(cfg *config.BuyConfig, name string) (*executor.Task, error) {
	m, ok := cfg.Find(name)
	if !ok {
		logger.Warn("未找到购买宏 %s", name)
		return nil, ErrMissingMacro
	}
	return c.Buy.Run(*m)
}

// EmergencyStop 停止所有正在进行的操作，超时后放弃等待
func (c *Controller) EmergencyStop(timeout time.Duration) bool {
	logger.Warn("紧急停止")
	c.Session.Stop()
	c.Clicker.Stop(timeout)
	c.exec.CancelAll()

	if !c.exec.WaitIdle(timeout) {
		logger.Warn("操作未在 %v 内停止", timeout)
		return false
	}
	return true
}

// Shutdown 停止所有操作并关闭执行器
func (c *Controller) Shutdown() {
	c.EmergencyStop(ShutdownTimeout)
	c.exec.Close()
	logger.Info("已退出")
}
