// Package hotkey 全局热键监听
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/zoeyai/winmacro/internal/logger"
)

// 默认热键
const (
	CaptureSlot1  = "alt+1"
	CaptureSlot2  = "alt+2"
	CaptureSlot3  = "alt+3"
	ClickerStart  = "ctrl+f1"
	ClickerStop   = "ctrl+f2"
	Exit          = "ctrl+f4"
	ShowPosition  = "ctrl+f9"
	StartRun      = "ctrl+f10"
	StopRun       = "ctrl+f11"
	EmergencyStop = "ctrl+f12"
)

// 修饰键统一写法
var modifierAlias = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"menu":    "alt",
	"win":     "cmd",
	"super":   "cmd",
	"escape":  "esc",
}

var modifiers = map[string]bool{"ctrl": true, "alt": true, "shift": true, "cmd": true}

// ErrDuplicate 同一组合键重复绑定
var ErrDuplicate = errors.New("热键重复")

// Binding 一个热键绑定
type Binding struct {
	Name   string
	Combo  string
	Keys   []string
	Action func()
}

// ParseCombo 解析 "ctrl+f5" 形式的组合键，修饰键在前
func ParseCombo(combo string) ([]string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	var mods, keys []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("热键格式错误: %q", combo)
		}
		if alias, ok := modifierAlias[p]; ok {
			p = alias
		}
		if modifiers[p] {
			mods = append(mods, p)
		} else {
			keys = append(keys, p)
		}
	}
	if len(keys) != 1 {
		return nil, fmt.Errorf("热键需要且只能有一个主键: %q", combo)
	}
	return append(mods, keys...), nil
}

// Listener 热键监听器
type Listener struct {
	mu       sync.Mutex
	bindings []Binding
	running  bool
}

// New 创建监听器
func New() *Listener {
	return &Listener{}
}

// Bind 绑定组合键，动作在独立 goroutine 中执行
func (l *Listener) Bind(name, combo string, action func()) error {
	keys, err := ParseCombo(combo)
	if err != nil {
		return err
	}
	normalized := strings.Join(keys, "+")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("监听已启动，无法再绑定")
	}
	for _, b := range l.bindings {
		if b.Combo == normalized {
			return fmt.Errorf("%w: %s 已绑定到 %s", ErrDuplicate, normalized, b.Name)
		}
	}
	l.bindings = append(l.bindings, Binding{Name: name, Combo: normalized, Keys: keys, Action: action})
	return nil
}

// Bindings 已绑定的热键
func (l *Listener) Bindings() []Binding {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Binding(nil), l.bindings...)
}

// Trigger 按名称触发一个绑定
func (l *Listener) Trigger(name string) bool {
	for _, b := range l.Bindings() {
		if b.Name == name {
			l.fire(b)
			return true
		}
	}
	return false
}

func (l *Listener) fire(b Binding) {
	logger.Debug("热键触发: %s (%s)", b.Combo, b.Name)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("热键 %s 执行异常: %v", b.Name, r)
			}
		}()
		b.Action()
	}()
}

// Run 注册所有热键并阻塞，直到 ctx 取消
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("监听已启动")
	}
	l.running = true
	bindings := append([]Binding(nil), l.bindings...)
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for _, b := range bindings {
		hook.Register(hook.KeyDown, b.Keys, func(hook.Event) {
			l.fire(b)
		})
		logger.Info("已注册热键: %s → %s", b.Combo, b.Name)
	}

	s := hook.Start()
	// hook.End 会关闭事件通道，只能调用一次
	var endOnce sync.Once
	end := func() { endOnce.Do(hook.End) }
	defer end()

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			end()
		case <-stopped:
		}
	}()
	<-hook.Process(s)
	close(stopped)
	return ctx.Err()
}
