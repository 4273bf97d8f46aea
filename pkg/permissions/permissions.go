// Package permissions 检查输入控制与截屏所需的系统权限
package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissing 缺少系统权限
var ErrMissing = errors.New("缺少系统权限")

// Status 权限状态
type Status struct {
	// Accessibility 控制鼠标键盘、全局热键
	Accessibility bool `json:"accessibility"`
	// ScreenRecording 截图与失败提示检测
	ScreenRecording bool `json:"screen_recording"`
}

// AllGranted 是否全部授权
func (s Status) AllGranted() bool {
	return s.Accessibility && s.ScreenRecording
}

// Check 检查当前权限，不触发系统弹窗
func Check() Status {
	return check()
}

// Instructions 缺失权限的授权说明，全部授权时返回空串
func Instructions(s Status) string {
	if s.AllGranted() {
		return ""
	}

	var b strings.Builder
	b.WriteString("需要授权以下权限才能正常工作:\n\n")
	if !s.Accessibility {
		b.WriteString("- 辅助功能权限 (用于控制鼠标/键盘和全局热键)\n")
		b.WriteString("  系统设置 > 隐私与安全性 > 辅助功能\n")
	}
	if !s.ScreenRecording {
		b.WriteString("- 屏幕录制权限 (用于截图和失败提示检测)\n")
		b.WriteString("  系统设置 > 隐私与安全性 > 屏幕录制\n")
	}
	b.WriteString("\n授权后需要重启应用才能生效。")
	return b.String()
}

// Require 检查指定权限，缺失时返回 ErrMissing
func Require(s Status, screen bool) error {
	var missing []string
	if !s.Accessibility {
		missing = append(missing, "辅助功能")
	}
	if screen && !s.ScreenRecording {
		missing = append(missing, "屏幕录制")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}
