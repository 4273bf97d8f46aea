package input

import (
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
)

// Driver 系统级鼠标键盘，坐标为 robotgo 输入坐标
type Driver interface {
	Location() (x, y int)
	Move(x, y int)
	Click(button string)
	KeyToggle(key string, down bool) error
	TypeStr(text string)
}

type robotgoDriver struct{}

// RobotgoDriver 返回基于 robotgo 的系统输入
func RobotgoDriver() Driver {
	return robotgoDriver{}
}

func (robotgoDriver) Location() (int, int) { return robotgo.Location() }

func (robotgoDriver) Move(x, y int) { robotgo.Move(x, y) }

func (robotgoDriver) Click(button string) { robotgo.Click(button, false) }

func (robotgoDriver) KeyToggle(key string, down bool) error {
	state := "up"
	if down {
		state = "down"
	}
	return robotgo.KeyToggle(key, state)
}

func (robotgoDriver) TypeStr(text string) { robotgo.TypeStr(text) }

// CursorPosition 当前鼠标的屏幕物理坐标
func CursorPosition(d Driver) auto.Point {
	x, y := d.Location()
	x, y = auto.NormalizePointForScreen(x, y)
	return auto.Point{X: x, Y: y}
}

// Global 全局输入回放器，每次操作前激活目标窗口
type Global struct {
	driver   Driver
	resolver *window.Resolver
	opts     *auto.Options
	sleep    func(time.Duration)
}

// NewGlobal 创建全局输入回放器
func NewGlobal(driver Driver, resolver *window.Resolver, opts ...auto.Option) *Global {
	return &Global{
		driver:   driver,
		resolver: resolver,
		opts:     auto.ApplyOptions(opts...),
		sleep:    time.Sleep,
	}
}

// Mechanism 实现 Replayer
func (g *Global) Mechanism() Mechanism {
	return MechanismGlobal
}

// Click 在客户区坐标处点击
func (g *Global) Click(h window.Handle, x, y int) error {
	button := "left"
	if g.opts.RightClick {
		button = "right"
	}
	return g.ClickWith(h, x, y, button)
}

// ClickWith 按住 modifiers 后用指定按键点击，结束后按相反顺序释放
func (g *Global) ClickWith(h window.Handle, x, y int, button string, modifiers ...string) error {
	geo, err := g.prepare(h)
	if err != nil {
		return err
	}

	restore := g.saveCursor()
	defer restore()

	screen := geo.ToScreen(auto.Point{X: x, Y: y})
	ix, iy := auto.NormalizePointForInput(screen.X, screen.Y)
	g.driver.Move(ix, iy)
	g.sleep(g.opts.ClickHold)

	for _, m := range modifiers {
		if err := g.driver.KeyToggle(m, true); err != nil {
			return fmt.Errorf("按下 %s 失败: %w", m, err)
		}
	}
	g.driver.Click(button)
	for i := len(modifiers) - 1; i >= 0; i-- {
		if err := g.driver.KeyToggle(modifiers[i], false); err != nil {
			logger.Warn("释放 %s 失败: %v", modifiers[i], err)
		}
	}

	logger.Debug("全局点击 %s 客户区(%d, %d) 屏幕(%d, %d) %s", h, x, y, screen.X, screen.Y, button)
	return nil
}

// TypeText 激活窗口后注入文字
func (g *Global) TypeText(h window.Handle, text string) error {
	if _, err := g.prepare(h); err != nil {
		return err
	}
	g.driver.TypeStr(text)
	logger.Debug("全局输入 %s %q", h, text)
	return nil
}

// prepare 重新计算几何并激活窗口
func (g *Global) prepare(h window.Handle) (*window.Geometry, error) {
	geo, err := g.resolver.Resolve(h)
	if err != nil {
		return nil, err
	}
	if err := g.resolver.Activate(h); err != nil {
		return nil, err
	}
	g.sleep(g.opts.ActivateDelay)
	return geo, nil
}

func (g *Global) saveCursor() func() {
	if !g.opts.RestoreCursor {
		return func() {}
	}
	x, y := g.driver.Location()
	return func() {
		g.driver.Move(x, y)
	}
}
