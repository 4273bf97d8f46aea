//go:build !windows

package input

import (
	"fmt"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
)

type unsupportedPoster struct{}

func platformPoster() MessagePoster {
	return unsupportedPoster{}
}

func (unsupportedPoster) PostMessage(h window.Handle, msg uint32, wParam, lParam uintptr) error {
	return fmt.Errorf("窗口消息投递: %w", auto.ErrUnsupported)
}
