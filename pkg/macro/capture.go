package macro

import (
	"fmt"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
)

// Capturer 把当前鼠标位置转换为绑定窗口的客户区坐标
//
// Capture 可以在任意协程（通常是热键回调）中调用。
type Capturer struct {
	store    *Store
	resolver *window.Resolver
	cursor   func() auto.Point
}

// NewCapturer 创建坐标捕获器
func NewCapturer(store *Store, resolver *window.Resolver, driver input.Driver) *Capturer {
	return &Capturer{
		store:    store,
		resolver: resolver,
		cursor:   func() auto.Point { return input.CursorPosition(driver) },
	}
}

// Capture 捕获槽位坐标并同步保存配置
//
// 保存失败时坐标仍然生效，同时返回错误。
func (c *Capturer) Capture(slot config.Slot) (Coordinate, error) {
	if !slot.Valid() {
		return Coordinate{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	h := c.store.Handle()
	if h == 0 {
		logger.Warn("请先绑定窗口")
		return Coordinate{}, ErrNoWindowBound
	}

	geo, err := c.resolver.Resolve(h)
	if err != nil {
		logger.Error("坐标%d捕获失败: %v", slot, err)
		return Coordinate{}, err
	}

	cursor := c.cursor()
	rel := geo.ToClient(cursor)
	coord := Coordinate{Slot: slot, X: rel.X, Y: rel.Y}

	logger.Info("坐标%d已设置: (%d, %d) 屏幕(%d, %d) 客户区原点(%d, %d)",
		slot, coord.X, coord.Y, cursor.X, cursor.Y, geo.Client.Left, geo.Client.Top)

	if err := c.store.SetCoordinate(coord); err != nil {
		return coord, fmt.Errorf("坐标已设置但保存失败: %w", err)
	}
	return coord, nil
}
