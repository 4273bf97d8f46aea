// Package input 提供针对指定窗口的点击与文字输入回放
//
// 两种回放方式：
//   - MechanismMessage：向窗口句柄投递消息，不改变前台焦点
//   - MechanismGlobal：激活窗口后移动真实鼠标并注入系统级输入，结束后恢复鼠标位置
//
// 两种方式必须显式选择，消息投递失败时不会自动改用全局输入。
package input

import (
	"fmt"
	"strings"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
)

// Mechanism 回放方式
type Mechanism string

const (
	MechanismMessage Mechanism = "message"
	MechanismGlobal  Mechanism = "global"
)

// ParseMechanism 解析回放方式字符串
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "message", "post", "postmessage":
		return MechanismMessage, nil
	case "global", "robotgo":
		return MechanismGlobal, nil
	default:
		return "", fmt.Errorf("未知的回放方式: %s", s)
	}
}

// Replayer 输入回放器，坐标均为客户区相对坐标
//
// 返回 nil 只表示输入已提交给系统，并不代表目标窗口已处理。
type Replayer interface {
	Mechanism() Mechanism
	Click(h window.Handle, x, y int) error
	TypeText(h window.Handle, text string) error
}

// New 按回放方式创建使用当前平台实现的回放器
func New(m Mechanism, resolver *window.Resolver, opts ...auto.Option) (Replayer, error) {
	switch m {
	case MechanismMessage:
		return NewMessage(platformPoster(), resolver, opts...), nil
	case MechanismGlobal:
		return NewGlobal(RobotgoDriver(), resolver, opts...), nil
	default:
		return nil, fmt.Errorf("未知的回放方式: %s", m)
	}
}
