//go:build !windows

package window

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/process"
)

// robotgoBackend 非 Windows 平台以 PID 作为句柄
type robotgoBackend struct{}

func platformBackend() Backend {
	return robotgoBackend{}
}

func (robotgoBackend) IsWindow(h Handle) bool {
	return h != 0 && process.Alive(int(h))
}

func (robotgoBackend) WindowRect(h Handle) (auto.Rect, error) {
	x, y, w, hgt := robotgo.GetBounds(int(h))
	if w == 0 && hgt == 0 {
		return auto.Rect{}, fmt.Errorf("无法获取窗口边界: PID=%d", int(h))
	}
	x, y = auto.NormalizePointForScreen(x, y)
	w, hgt = auto.NormalizePointForScreen(w, hgt)
	return auto.Rect{Left: x, Top: y, Right: x + w, Bottom: y + hgt}, nil
}

func (robotgoBackend) ClientRect(h Handle) (auto.Rect, error) {
	_, _, w, hgt := robotgo.GetClient(int(h))
	if w == 0 && hgt == 0 {
		return auto.Rect{}, fmt.Errorf("无法获取窗口客户区: PID=%d", int(h))
	}
	w, hgt = auto.NormalizePointForScreen(w, hgt)
	return auto.Rect{Right: w, Bottom: hgt}, nil
}

func (robotgoBackend) ClientToScreen(h Handle, p auto.Point) (auto.Point, error) {
	x, y, w, hgt := robotgo.GetClient(int(h))
	if w == 0 && hgt == 0 {
		return auto.Point{}, fmt.Errorf("无法获取窗口客户区: PID=%d", int(h))
	}
	x, y = auto.NormalizePointForScreen(x, y)
	return auto.Point{X: x + p.X, Y: y + p.Y}, nil
}

func (robotgoBackend) Activate(h Handle) error {
	return robotgo.ActivePid(int(h))
}

// List 通过 robotgo 遍历有标题的进程窗口
func (robotgoBackend) List(filter string) ([]Info, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	var result []Info
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}

		name, _ := robotgo.FindName(pid)
		if filter != "" &&
			!strings.Contains(strings.ToLower(title), filter) &&
			!strings.Contains(strings.ToLower(name), filter) {
			continue
		}

		x, y, w, hgt := robotgo.GetBounds(pid)
		result = append(result, Info{
			Handle:    Handle(pid),
			PID:       pid,
			Title:     title,
			OwnerName: name,
			Bounds:    auto.Rect{Left: x, Top: y, Right: x + w, Bottom: y + hgt},
		})
	}

	return result, nil
}
