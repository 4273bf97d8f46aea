package macro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/executor"
)

// ErrClickerActive 连点器运行时不执行购买
var ErrClickerActive = errors.New("连点器运行中")

const (
	buyKeyDelay   = 100 * time.Millisecond
	buyRoundDelay = 200 * time.Millisecond
)

// BuyRunner 执行购买宏，与自动化会话共用输入执行器
type BuyRunner struct {
	exec    *executor.Executor
	driver  input.Driver
	clicker *AutoClicker

	keyDelay   time.Duration
	roundDelay time.Duration
}

// NewBuyRunner 创建购买宏执行器，clicker 可为 nil
func NewBuyRunner(exec *executor.Executor, driver input.Driver, clicker *AutoClicker) *BuyRunner {
	return &BuyRunner{
		exec:       exec,
		driver:     driver,
		clicker:    clicker,
		keyDelay:   buyKeyDelay,
		roundDelay: buyRoundDelay,
	}
}

// Run 提交购买宏，已有操作进行中时返回 ErrBusy
func (b *BuyRunner) Run(m config.BuyMacro) (*executor.Task, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if b.clicker != nil && b.clicker.Active() {
		logger.Warn("连点器运行中，忽略购买 %s", m.Name)
		return nil, ErrClickerActive
	}

	task, err := b.exec.TrySubmit("buy:"+m.Name, func(ctx context.Context) error {
		return b.run(ctx, m)
	})
	if errors.Is(err, executor.ErrBusy) {
		logger.Warn("已有购买操作在进行中")
		return nil, ErrBusy
	}
	return task, err
}

func (b *BuyRunner) run(ctx context.Context, m config.BuyMacro) error {
	logger.Info("开始购买%s", m.Name)
	start := time.Now()

	for round := 1; round <= m.Rounds; round++ {
		for i, pos := range m.Positions {
			if err := ctx.Err(); err != nil {
				logger.Warn("购买%s已停止: 第 %d 轮第 %d 个", m.Name, round, i+1)
				return err
			}
			if err := b.buyOne(ctx, pos, m); err != nil {
				return fmt.Errorf("购买%s失败: %w", m.Name, err)
			}
		}
		if round < m.Rounds {
			if err := auto.Sleep(ctx, b.roundDelay); err != nil {
				return err
			}
		}
	}

	logger.LogEvent("BUY", true, float64(time.Since(start).Microseconds())/1000, fmt.Sprintf("%s 完成 %d 轮", m.Name, m.Rounds))
	return nil
}

// buyOne shift+右键物品 → 输入数量 → 点击确认
func (b *BuyRunner) buyOne(ctx context.Context, pos auto.Point, m config.BuyMacro) (err error) {
	b.moveTo(pos)

	if err := b.driver.KeyToggle("shift", true); err != nil {
		return err
	}
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if e := b.driver.KeyToggle("shift", false); e != nil && err == nil {
			err = e
		}
	}
	defer release()

	if err := auto.Sleep(ctx, b.keyDelay); err != nil {
		return err
	}
	b.driver.Click("right")
	if err := auto.Sleep(ctx, b.keyDelay); err != nil {
		return err
	}
	release()
	if err != nil {
		return err
	}

	b.driver.TypeStr(m.Quantity)
	b.moveTo(m.Confirm)
	b.driver.Click("left")
	return nil
}

func (b *BuyRunner) moveTo(p auto.Point) {
	x, y := auto.NormalizePointForInput(p.X, p.Y)
	b.driver.Move(x, y)
}
