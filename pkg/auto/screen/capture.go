// Package screen 提供屏幕区域截图与截图文件保存
package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"github.com/zoeyai/winmacro/pkg/auto"
)

// Capturer 屏幕区域截图，区域为屏幕物理坐标
type Capturer interface {
	CaptureRegion(r auto.Region) (image.Image, error)
}

// CapturerFunc 函数适配器
type CapturerFunc func(r auto.Region) (image.Image, error)

// CaptureRegion 实现 Capturer
func (f CapturerFunc) CaptureRegion(r auto.Region) (image.Image, error) {
	return f(r)
}

// Default 返回基于 kbinani/screenshot 的截图器
func Default() Capturer {
	return CapturerFunc(CaptureRegion)
}

// CaptureRegion 截取屏幕区域（物理像素，可跨显示器）
func CaptureRegion(r auto.Region) (image.Image, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("截图区域无效: %+v", r)
	}
	img, err := screenshot.CaptureRect(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return img, nil
}

// CaptureScreen 截取主屏
func CaptureScreen() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	return img, nil
}

// DisplayBounds 所有活动显示器的范围
func DisplayBounds() []auto.Rect {
	n := screenshot.NumActiveDisplays()
	out := make([]auto.Rect, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		out = append(out, auto.Rect{Left: b.Min.X, Top: b.Min.Y, Right: b.Max.X, Bottom: b.Max.Y})
	}
	return out
}
