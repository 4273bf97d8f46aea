package input

import (
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
)

// Win32 窗口消息
const (
	WMMouseMove   uint32 = 0x0200
	WMLButtonDown uint32 = 0x0201
	WMLButtonUp   uint32 = 0x0202
	WMRButtonDown uint32 = 0x0204
	WMRButtonUp   uint32 = 0x0205
	WMChar        uint32 = 0x0102

	MKLButton uintptr = 0x0001
	MKRButton uintptr = 0x0002
)

// MakeLParam 把客户区坐标打包为鼠标消息的 lParam（低 16 位 x，高 16 位 y）
func MakeLParam(x, y int) uintptr {
	return uintptr(uint32(uint16(int16(y)))<<16 | uint32(uint16(int16(x))))
}

// SplitLParam MakeLParam 的逆运算
func SplitLParam(lParam uintptr) (x, y int) {
	return int(int16(uint16(lParam))), int(int16(uint16(lParam >> 16)))
}

// MessagePoster 窗口消息投递
type MessagePoster interface {
	PostMessage(h window.Handle, msg uint32, wParam, lParam uintptr) error
}

// Message 基于窗口消息的回放器
type Message struct {
	poster   MessagePoster
	resolver *window.Resolver
	opts     *auto.Options
	sleep    func(time.Duration)
}

// NewMessage 创建消息回放器
func NewMessage(poster MessagePoster, resolver *window.Resolver, opts ...auto.Option) *Message {
	return &Message{
		poster:   poster,
		resolver: resolver,
		opts:     auto.ApplyOptions(opts...),
		sleep:    time.Sleep,
	}
}

// Mechanism 实现 Replayer
func (m *Message) Mechanism() Mechanism {
	return MechanismMessage
}

// Click 投递 移动 → 按下 → 等待 → 抬起
func (m *Message) Click(h window.Handle, x, y int) error {
	if err := m.resolver.Validate(h); err != nil {
		return err
	}

	down, up, flag := WMLButtonDown, WMLButtonUp, MKLButton
	if m.opts.RightClick {
		down, up, flag = WMRButtonDown, WMRButtonUp, MKRButton
	}

	lParam := MakeLParam(x, y)
	if err := m.poster.PostMessage(h, WMMouseMove, 0, lParam); err != nil {
		return fmt.Errorf("投递鼠标移动失败: %w", err)
	}
	if err := m.poster.PostMessage(h, down, flag, lParam); err != nil {
		return fmt.Errorf("投递鼠标按下失败: %w", err)
	}
	m.sleep(m.opts.ClickHold)
	if err := m.poster.PostMessage(h, up, 0, lParam); err != nil {
		return fmt.Errorf("投递鼠标抬起失败: %w", err)
	}

	logger.Debug("消息点击 %s (%d, %d)", h, x, y)
	return nil
}

// TypeText 逐字符投递 WM_CHAR，非 BMP 字符按 UTF-16 代理对拆分
func (m *Message) TypeText(h window.Handle, text string) error {
	if err := m.resolver.Validate(h); err != nil {
		return err
	}

	units := utf16.Encode([]rune(text))
	for i, u := range units {
		if i > 0 {
			m.sleep(m.opts.CharInterval)
		}
		if err := m.poster.PostMessage(h, WMChar, uintptr(u), 0); err != nil {
			return fmt.Errorf("投递字符失败（第 %d 个）: %w", i+1, err)
		}
	}

	logger.Debug("消息输入 %s %q", h, text)
	return nil
}
