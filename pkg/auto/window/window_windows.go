//go:build windows

package window

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/process"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetWindowRect        = user32.NewProc("GetWindowRect")
	procGetClientRect        = user32.NewProc("GetClientRect")
	procClientToScreen       = user32.NewProc("ClientToScreen")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowLongW       = user32.NewProc("GetWindowLongW")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
	procShowWindow           = user32.NewProc("ShowWindow")
	procBringWindowToTop     = user32.NewProc("BringWindowToTop")
	procAttachThreadInput    = user32.NewProc("AttachThreadInput")
	procIsIconic             = user32.NewProc("IsIconic")
)

const (
	gwlStyle   = ^uintptr(15) // -16
	gwlExStyle = ^uintptr(19) // -20

	wsVisible      uintptr = 0x10000000
	wsExToolWindow uintptr = 0x00000080
	wsExAppWindow  uintptr = 0x00040000

	swRestore = 9
)

type point struct {
	X, Y int32
}

type win32Backend struct{}

func platformBackend() Backend {
	return win32Backend{}
}

func (win32Backend) IsWindow(h Handle) bool {
	return windows.IsWindow(windows.HWND(h))
}

func (win32Backend) WindowRect(h Handle) (auto.Rect, error) {
	var r windows.Rect
	ret, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return auto.Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return fromWinRect(r), nil
}

func (win32Backend) ClientRect(h Handle) (auto.Rect, error) {
	var r windows.Rect
	ret, _, err := procGetClientRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return auto.Rect{}, fmt.Errorf("GetClientRect: %w", err)
	}
	return fromWinRect(r), nil
}

func (win32Backend) ClientToScreen(h Handle, p auto.Point) (auto.Point, error) {
	pt := point{X: int32(p.X), Y: int32(p.Y)}
	ret, _, err := procClientToScreen.Call(uintptr(h), uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return auto.Point{}, fmt.Errorf("ClientToScreen: %w", err)
	}
	return auto.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}

// Activate 激活窗口，前台锁定时借 AttachThreadInput 绕过
func (win32Backend) Activate(h Handle) error {
	hwnd := windows.HWND(h)

	foreground := windows.GetForegroundWindow()
	var foregroundThreadID uint32
	if foreground != 0 {
		foregroundThreadID, _ = windows.GetWindowThreadProcessId(foreground, nil)
	}

	currentThreadID := windows.GetCurrentThreadId()
	targetThreadID, _ := windows.GetWindowThreadProcessId(hwnd, nil)

	if foregroundThreadID != 0 && foregroundThreadID != currentThreadID {
		procAttachThreadInput.Call(uintptr(currentThreadID), uintptr(foregroundThreadID), 1)
		defer procAttachThreadInput.Call(uintptr(currentThreadID), uintptr(foregroundThreadID), 0)
	}

	if targetThreadID != 0 && targetThreadID != currentThreadID {
		procAttachThreadInput.Call(uintptr(currentThreadID), uintptr(targetThreadID), 1)
		defer procAttachThreadInput.Call(uintptr(currentThreadID), uintptr(targetThreadID), 0)
	}

	if iconic, _, _ := procIsIconic.Call(uintptr(hwnd)); iconic != 0 {
		procShowWindow.Call(uintptr(hwnd), swRestore)
	}
	procBringWindowToTop.Call(uintptr(hwnd))

	ret, _, _ := procSetForegroundWindow.Call(uintptr(hwnd))
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow 失败")
	}

	return nil
}

// List 使用 EnumWindows 获取可见的顶层应用窗口
func (win32Backend) List(filter string) ([]Info, error) {
	result := make([]Info, 0, 64)
	names := make(map[uint32]string)

	callback := windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		if !windows.IsWindowVisible(hwnd) {
			return 1
		}

		style, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlStyle)
		exStyle, _, _ := procGetWindowLongW.Call(uintptr(hwnd), gwlExStyle)
		if style&wsVisible == 0 {
			return 1
		}
		if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
			return 1
		}

		title := windowText(hwnd)
		if title == "" {
			return 1
		}

		var pid uint32
		windows.GetWindowThreadProcessId(hwnd, &pid)
		if pid == 0 {
			return 1
		}

		owner, ok := names[pid]
		if !ok {
			if p, err := process.Lookup(int(pid)); err == nil {
				owner = p.BaseName()
			}
			names[pid] = owner
		}

		var r windows.Rect
		procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
		bounds := fromWinRect(r)
		if bounds.Width() < 50 || bounds.Height() < 50 {
			return 1
		}

		if filter != "" &&
			!strings.Contains(strings.ToLower(title), filter) &&
			!strings.Contains(strings.ToLower(owner), filter) {
			return 1
		}

		result = append(result, Info{
			Handle:    Handle(hwnd),
			PID:       int(pid),
			Title:     title,
			OwnerName: owner,
			Bounds:    bounds,
		})
		return 1
	})

	if err := windows.EnumWindows(callback, nil); err != nil {
		return nil, fmt.Errorf("枚举窗口失败: %w", err)
	}

	return result, nil
}

func windowText(hwnd windows.HWND) string {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	if _, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf))); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf)
}

func fromWinRect(r windows.Rect) auto.Rect {
	return auto.Rect{
		Left:   int(r.Left),
		Top:    int(r.Top),
		Right:  int(r.Right),
		Bottom: int(r.Bottom),
	}
}
