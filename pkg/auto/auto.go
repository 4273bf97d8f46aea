// Package auto 提供窗口自动化的共享类型和工具函数。
// 具体功能分布在子包中：window, input, screen。
package auto

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	// ErrWindowInvalid 窗口句柄已失效（窗口关闭或从未存在），需要操作员重新绑定
	ErrWindowInvalid = errors.New("窗口句柄无效")
	// ErrNoWindowBound 尚未绑定目标窗口
	ErrNoWindowBound = errors.New("未绑定窗口")
	// ErrUnsupported 当前平台不支持该操作
	ErrUnsupported = errors.New("当前平台不支持")
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add 返回两个点之和
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub 返回 p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect 屏幕矩形，Right/Bottom 为开区间
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width 宽度
func (r Rect) Width() int { return r.Right - r.Left }

// Height 高度
func (r Rect) Height() int { return r.Bottom - r.Top }

// Origin 左上角
func (r Rect) Origin() Point { return Point{X: r.Left, Y: r.Top} }

// Empty 是否为空矩形
func (r Rect) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// ContainsRect 判断 o 是否完全位于 r 内
func (r Rect) ContainsRect(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// Intersect 返回两个矩形的交集，不相交时返回 r 左上角处的空矩形
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   MaxInt(r.Left, o.Left),
		Top:    MaxInt(r.Top, o.Top),
		Right:  MinInt(r.Right, o.Right),
		Bottom: MinInt(r.Bottom, o.Bottom),
	}
	if out.Empty() {
		return Rect{Left: r.Left, Top: r.Top, Right: r.Left, Bottom: r.Top}
	}
	return out
}

// ToRegion 转换为 x/y/宽/高 形式
func (r Rect) ToRegion() Region {
	return Region{X: r.Left, Y: r.Top, Width: r.Width(), Height: r.Height()}
}

// Region 表示矩形区域
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SubRegion 按比例截取区域，fx0/fx1、fy0/fy1 取值 0-1
func (r Region) SubRegion(fx0, fy0, fx1, fy1 float64) Region {
	x0 := r.X + int(float64(r.Width)*fx0)
	y0 := r.Y + int(float64(r.Height)*fy0)
	x1 := r.X + int(float64(r.Width)*fx1)
	y1 := r.Y + int(float64(r.Height)*fy1)
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Sleep 可被 ctx 打断的休眠，被打断时返回 ctx.Err()
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Seconds 把秒数转换为 time.Duration
func Seconds(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// MinInt 返回最小值
func MinInt(values ...int) int {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// MaxInt 返回最大值
func MaxInt(values ...int) int {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// ScaleInt 缩放整数值
func ScaleInt(value int, factor float64) int {
	if factor <= 0 {
		return value
	}
	return int(math.Round(float64(value) * factor))
}
