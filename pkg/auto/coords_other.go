//go:build !windows

package auto

// robotgo 在这些平台上直接使用截图坐标
func detectScale() Scale {
	return IdentityScale
}

// DPIScale 系统缩放比例
func DPIScale() float64 {
	return 1.0
}
