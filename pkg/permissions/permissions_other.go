//go:build !darwin

package permissions

// 其他平台不需要额外授权
func check() Status {
	return Status{Accessibility: true, ScreenRecording: true}
}

// RequestAccessibility 非 macOS 直接返回 true
func RequestAccessibility() bool {
	return true
}

// OpenSettings 非 macOS 无需打开设置
func OpenSettings(Status) {}
