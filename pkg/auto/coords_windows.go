//go:build windows

package auto

import (
	"github.com/go-vgo/robotgo"
	"golang.org/x/sys/windows"

	"github.com/zoeyai/winmacro/internal/logger"
)

var (
	user32DPI            = windows.NewLazySystemDLL("user32.dll")
	gdi32DPI             = windows.NewLazySystemDLL("gdi32.dll")
	procGetDpiForWindow  = user32DPI.NewProc("GetDpiForWindow")
	procGetDesktopWindow = user32DPI.NewProc("GetDesktopWindow")
	procGetDC            = user32DPI.NewProc("GetDC")
	procReleaseDC        = user32DPI.NewProc("ReleaseDC")
	procGetDeviceCaps    = gdi32DPI.NewProc("GetDeviceCaps")
)

const logPixelsX = 88

// detectScale 比较整屏截图尺寸与 robotgo 报告的屏幕尺寸，截图失败时退回系统 DPI
func detectScale() Scale {
	w, h := robotgo.GetScreenSize()
	s := IdentityScale
	if img, err := robotgo.CaptureImg(); err == nil && img != nil {
		s = ScaleFromSizes(img.Bounds().Dx(), img.Bounds().Dy(), w, h)
	} else if d := normalizeScale(DPIScale()); d != 1 {
		s = Scale{X: d, Y: d}
	}
	logger.Debug("坐标比例: DPI=%.0f%% robotgo=%dx%d scale=%.3f/%.3f", DPIScale()*100, w, h, s.X, s.Y)
	return s
}

// DPIScale 系统 DPI 缩放比例，1.25 即 125%
func DPIScale() float64 {
	dpi := 0

	// Windows 10 1607+
	if procGetDpiForWindow.Find() == nil {
		if hwnd, _, _ := procGetDesktopWindow.Call(); hwnd != 0 {
			d, _, _ := procGetDpiForWindow.Call(hwnd)
			dpi = int(d)
		}
	}

	if dpi <= 0 && procGetDC.Find() == nil && procGetDeviceCaps.Find() == nil {
		if dc, _, _ := procGetDC.Call(0); dc != 0 {
			d, _, _ := procGetDeviceCaps.Call(dc, logPixelsX)
			dpi = int(d)
			procReleaseDC.Call(0, dc)
		}
	}

	if dpi <= 0 {
		return 1.0
	}
	return float64(dpi) / 96.0
}
