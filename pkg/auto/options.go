package auto

import "time"

// Option 配置选项函数类型
type Option func(*Options)

// Options 输入回放配置
type Options struct {
	// ClickHold 按下与抬起之间的间隔
	ClickHold time.Duration
	// CharInterval 逐字输入时的字符间隔
	CharInterval time.Duration
	// ActivateDelay 全局输入模式下激活窗口后的等待
	ActivateDelay time.Duration
	// RestoreCursor 全局输入模式下操作后是否恢复鼠标位置
	RestoreCursor bool
	// RightClick 是否右键点击
	RightClick bool
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		ClickHold:     50 * time.Millisecond,
		CharInterval:  10 * time.Millisecond,
		ActivateDelay: 100 * time.Millisecond,
		RestoreCursor: true,
		RightClick:    false,
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClickHold 设置按键保持时间
func WithClickHold(d time.Duration) Option {
	return func(o *Options) {
		o.ClickHold = d
	}
}

// WithCharInterval 设置字符间隔
func WithCharInterval(d time.Duration) Option {
	return func(o *Options) {
		o.CharInterval = d
	}
}

// WithActivateDelay 设置激活窗口后的等待时间
func WithActivateDelay(d time.Duration) Option {
	return func(o *Options) {
		o.ActivateDelay = d
	}
}

// WithoutCursorRestore 操作后不恢复鼠标位置
func WithoutCursorRestore() Option {
	return func(o *Options) {
		o.RestoreCursor = false
	}
}

// WithRightClick 设置右键点击
func WithRightClick() Option {
	return func(o *Options) {
		o.RightClick = true
	}
}
