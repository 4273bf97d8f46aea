// Package macro 实现坐标捕获、自动化会话与购买宏
package macro

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/executor"
)

var (
	// ErrNoWindowBound 尚未绑定目标窗口
	ErrNoWindowBound = auto.ErrNoWindowBound
	// ErrMissingCoordinate 必需的坐标槽位未设置
	ErrMissingCoordinate = errors.New("坐标未设置")
	// ErrInvalidSlot 槽位超出 1-3
	ErrInvalidSlot = errors.New("无效的坐标槽位")
	// ErrEmptyInput 输入为空或只有空行
	ErrEmptyInput = errors.New("输入内容为空")
	// ErrBusy 已有操作在进行
	ErrBusy = executor.ErrBusy
	// ErrMissingMacro 购买宏不存在
	ErrMissingMacro = errors.New("购买宏不存在")
)

// Coordinate 客户区相对坐标
type Coordinate struct {
	Slot config.Slot `json:"slot"`
	X    int         `json:"x"`
	Y    int         `json:"y"`
}

// Point 转为 auto.Point
func (c Coordinate) Point() auto.Point {
	return auto.Point{X: c.X, Y: c.Y}
}

// Store 绑定窗口与自动化配置，热键协程写、回放协程读
type Store struct {
	mu     sync.RWMutex
	handle window.Handle
	cfg    *config.AutomationConfig

	saveMu  sync.Mutex
	manager *config.Manager
}

// NewStore 创建存储，manager 为 nil 时不落盘
func NewStore(cfg *config.AutomationConfig, manager *config.Manager) *Store {
	if cfg == nil {
		cfg = config.DefaultAutomationConfig()
	}
	return &Store{cfg: cfg.Clone(), manager: manager}
}

// LoadStore 从配置管理器加载，读取失败时使用默认值并记录日志
func LoadStore(manager *config.Manager) *Store {
	cfg, err := manager.Load()
	if err != nil {
		logger.Warn("加载配置失败，使用默认值: %v", err)
	}
	return NewStore(cfg, manager)
}

// Bind 绑定目标窗口
func (s *Store) Bind(h window.Handle) {
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
	logger.Info("已绑定窗口 %s", h)
}

// Handle 当前绑定的窗口
func (s *Store) Handle() window.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Coordinate 读取槽位坐标
func (s *Store) Coordinate(slot config.Slot) (Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.cfg.Coords[slot]
	if !ok {
		return Coordinate{}, false
	}
	return Coordinate{Slot: slot, X: p.X, Y: p.Y}, true
}

// Snapshot 配置副本
func (s *Store) Snapshot() *config.AutomationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetCoordinate 写入槽位坐标并同步落盘
func (s *Store) SetCoordinate(c Coordinate) error {
	if !c.Slot.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, c.Slot)
	}
	return s.Update(func(cfg *config.AutomationConfig) {
		cfg.Coords[c.Slot] = c.Point()
	})
}

// Update 修改配置并同步落盘
func (s *Store) Update(fn func(cfg *config.AutomationConfig)) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	fn(s.cfg)
	if s.cfg.Coords == nil {
		s.cfg.Coords = config.Coords{}
	}
	snapshot := s.cfg.Clone()
	s.mu.Unlock()

	if s.manager == nil {
		return nil
	}
	if err := s.manager.Save(snapshot); err != nil {
		logger.Error("保存配置失败: %v", err)
		return err
	}
	return nil
}
