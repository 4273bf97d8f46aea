// Package window 提供窗口几何解析与窗口查找
//
// 几何信息每次调用都重新计算，不做缓存：两次捕获之间窗口可能被移动或缩放。
package window

import (
	"fmt"
	"strings"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
)

// Handle 窗口句柄。Windows 上为 HWND，其他平台为所属进程 PID
type Handle uintptr

func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// Geometry 窗口几何信息（屏幕坐标）
type Geometry struct {
	// Window 外框矩形
	Window auto.Rect `json:"window"`
	// Client 客户区矩形，保证位于 Window 内
	Client auto.Rect `json:"client"`
	// BorderWidth = Window.Left - Client.Left，仅用于诊断日志
	BorderWidth int `json:"border_width"`
	// TitleBarHeight = Client.Top - Window.Top - BorderWidth，仅用于诊断日志
	TitleBarHeight int `json:"title_bar_height"`
}

// ClientOrigin 客户区左上角的屏幕坐标
func (g *Geometry) ClientOrigin() auto.Point {
	return g.Client.Origin()
}

// ToScreen 客户区相对坐标 → 屏幕坐标
func (g *Geometry) ToScreen(p auto.Point) auto.Point {
	return g.Client.Origin().Add(p)
}

// ToClient 屏幕坐标 → 客户区相对坐标
func (g *Geometry) ToClient(p auto.Point) auto.Point {
	return p.Sub(g.Client.Origin())
}

// Info 窗口信息
type Info struct {
	Handle    Handle    `json:"handle"`
	PID       int       `json:"pid"`
	Title     string    `json:"title"`
	OwnerName string    `json:"owner_name"`
	Bounds    auto.Rect `json:"bounds"`
}

// Backend 平台窗口接口
type Backend interface {
	// IsWindow 句柄是否仍指向存活的窗口
	IsWindow(h Handle) bool
	// WindowRect 外框屏幕矩形
	WindowRect(h Handle) (auto.Rect, error)
	// ClientRect 客户区矩形（窗口本地坐标，左上角通常为 0,0）
	ClientRect(h Handle) (auto.Rect, error)
	// ClientToScreen 客户区本地坐标 → 屏幕坐标
	ClientToScreen(h Handle, p auto.Point) (auto.Point, error)
	// Activate 把窗口置于前台
	Activate(h Handle) error
	// List 列出可见的顶层窗口，filter 为空时返回全部
	List(filter string) ([]Info, error)
}

// Resolver 窗口几何解析器
type Resolver struct {
	backend Backend
}

// NewResolver 使用指定后端创建解析器
func NewResolver(b Backend) *Resolver {
	return &Resolver{backend: b}
}

// Backend 返回底层平台后端
func (r *Resolver) Backend() Backend {
	return r.backend
}

// Resolve 计算窗口外框、客户区及边框偏移
func (r *Resolver) Resolve(h Handle) (*Geometry, error) {
	if h == 0 {
		return nil, auto.ErrNoWindowBound
	}
	if !r.backend.IsWindow(h) {
		return nil, fmt.Errorf("%w: %s", auto.ErrWindowInvalid, h)
	}

	wr, err := r.backend.WindowRect(h)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取窗口矩形失败: %v", auto.ErrWindowInvalid, err)
	}

	local, err := r.backend.ClientRect(h)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取客户区失败: %v", auto.ErrWindowInvalid, err)
	}

	tl, err := r.backend.ClientToScreen(h, auto.Point{X: local.Left, Y: local.Top})
	if err != nil {
		return nil, fmt.Errorf("%w: 客户区坐标转换失败: %v", auto.ErrWindowInvalid, err)
	}
	br, err := r.backend.ClientToScreen(h, auto.Point{X: local.Right, Y: local.Bottom})
	if err != nil {
		return nil, fmt.Errorf("%w: 客户区坐标转换失败: %v", auto.ErrWindowInvalid, err)
	}

	client := auto.Rect{Left: tl.X, Top: tl.Y, Right: br.X, Bottom: br.Y}
	if !wr.ContainsRect(client) {
		// 部分窗口（DWM 阴影、最小化状态）报告的客户区会超出外框
		logger.Debug("客户区 %+v 超出外框 %+v，已裁剪", client, wr)
		client = wr.Intersect(client)
	}

	g := &Geometry{
		Window: wr,
		Client: client,
	}
	g.BorderWidth = wr.Left - client.Left
	g.TitleBarHeight = client.Top - wr.Top - g.BorderWidth

	logger.Debug("窗口 %s 外框=%+v 客户区=%+v 边框=%d 标题栏=%d",
		h, wr, client, g.BorderWidth, g.TitleBarHeight)

	return g, nil
}

// Activate 激活窗口
func (r *Resolver) Activate(h Handle) error {
	if h == 0 {
		return auto.ErrNoWindowBound
	}
	if !r.backend.IsWindow(h) {
		return fmt.Errorf("%w: %s", auto.ErrWindowInvalid, h)
	}
	if err := r.backend.Activate(h); err != nil {
		return fmt.Errorf("激活窗口失败: %w", err)
	}
	return nil
}

// Validate 检查句柄是否可用
func (r *Resolver) Validate(h Handle) error {
	if h == 0 {
		return auto.ErrNoWindowBound
	}
	if !r.backend.IsWindow(h) {
		return fmt.Errorf("%w: %s", auto.ErrWindowInvalid, h)
	}
	return nil
}

// List 获取窗口列表
func (r *Resolver) List(filter string) ([]Info, error) {
	return r.backend.List(strings.ToLower(filter))
}

// FindByTitle 按标题查找窗口（不区分大小写，部分匹配，取第一个）
func (r *Resolver) FindByTitle(title string) (*Info, error) {
	windows, err := r.List(title)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(title)
	for i := range windows {
		if strings.Contains(strings.ToLower(windows[i].Title), lower) {
			return &windows[i], nil
		}
	}
	if len(windows) > 0 {
		return &windows[0], nil
	}

	return nil, fmt.Errorf("未找到标题包含 %q 的窗口", title)
}

var defaultResolver = NewResolver(platformBackend())

// Default 获取使用当前平台后端的解析器
func Default() *Resolver {
	return defaultResolver
}

// Resolve 使用默认解析器计算几何信息
func Resolve(h Handle) (*Geometry, error) {
	return defaultResolver.Resolve(h)
}

// List 使用默认解析器列出窗口
func List(filter string) ([]Info, error) {
	return defaultResolver.List(filter)
}

// FindByTitle 使用默认解析器按标题查找
func FindByTitle(title string) (*Info, error) {
	return defaultResolver.FindByTitle(title)
}
