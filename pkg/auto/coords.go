package auto

import (
	"math"
	"sync"
)

// 坐标空间:
//
//	物理坐标  截图像素，窗口几何与客户区坐标都以它为准
//	输入坐标  robotgo.Move/Click 使用的坐标，高 DPI 下可能是逻辑像素
//
// Scale = 截图尺寸 / robotgo 屏幕尺寸，首次使用时探测并缓存。
// 后台消息回放直接使用客户区坐标，不经过这里。

// Scale 物理坐标与输入坐标的比例
type Scale struct {
	X float64
	Y float64
}

// IdentityScale 无缩放
var IdentityScale = Scale{X: 1, Y: 1}

// ScaleFromSizes 由截图尺寸与输入屏幕尺寸计算比例，异常值视为 1
func ScaleFromSizes(captureW, captureH, inputW, inputH int) Scale {
	if captureW <= 0 || captureH <= 0 || inputW <= 0 || inputH <= 0 {
		return IdentityScale
	}
	return Scale{
		X: normalizeScale(float64(captureW) / float64(inputW)),
		Y: normalizeScale(float64(captureH) / float64(inputH)),
	}
}

// ToInput 物理坐标 → 输入坐标
func (s Scale) ToInput(p Point) Point {
	return Point{X: ScaleInt(p.X, 1/s.X), Y: ScaleInt(p.Y, 1/s.Y)}
}

// ToScreen 输入坐标 → 物理坐标
func (s Scale) ToScreen(p Point) Point {
	return Point{X: ScaleInt(p.X, s.X), Y: ScaleInt(p.Y, s.Y)}
}

// 0.5-4 之外或接近 1 的比例按 1 处理
func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}

var inputScale struct {
	mu    sync.Mutex
	scale Scale
	ok    bool
}

// InputScale 当前屏幕的坐标比例
func InputScale() Scale {
	inputScale.mu.Lock()
	defer inputScale.mu.Unlock()
	if !inputScale.ok {
		inputScale.scale = detectScale()
		inputScale.ok = true
	}
	return inputScale.scale
}

// ResetInputScale 显示设置变化后重新探测
func ResetInputScale() {
	inputScale.mu.Lock()
	inputScale.ok = false
	inputScale.mu.Unlock()
}

// NormalizePointForInput 将物理坐标转换为 robotgo 输入坐标
func NormalizePointForInput(x, y int) (int, int) {
	p := InputScale().ToInput(Point{X: x, Y: y})
	return p.X, p.Y
}

// NormalizePointForScreen 将 robotgo 坐标转换为物理坐标
func NormalizePointForScreen(x, y int) (int, int) {
	p := InputScale().ToScreen(Point{X: x, Y: y})
	return p.X, p.Y
}
