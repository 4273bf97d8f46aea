//go:build windows

package input

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/zoeyai/winmacro/pkg/auto/window"
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procPostMessage = user32.NewProc("PostMessageW")
)

type win32Poster struct{}

func platformPoster() MessagePoster {
	return win32Poster{}
}

// PostMessage 异步投递，系统接受即返回，不等待目标窗口处理
func (win32Poster) PostMessage(h window.Handle, msg uint32, wParam, lParam uintptr) error {
	ret, _, err := procPostMessage.Call(uintptr(h), uintptr(msg), wParam, lParam)
	if ret == 0 {
		return fmt.Errorf("PostMessageW(0x%04X): %w", msg, err)
	}
	return nil
}
