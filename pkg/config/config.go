// Package config 管理窗口自动化的持久化配置
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/zoeyai/winmacro/pkg/auto"
)

// 默认值
const (
	DefaultClickDelay = 0.5
	DefaultInputDelay = 0.3

	// FileName 自动化配置文件名
	FileName = "window_automator_config.json"
)

// Slot 坐标槽位，取值 1-3
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
	Slot3 Slot = 3
)

// Valid 槽位是否合法
func (s Slot) Valid() bool {
	return s >= Slot1 && s <= Slot3
}

// Coords 槽位 → 客户区相对坐标，未设置的槽位不出现在 map 中
type Coords map[Slot]auto.Point

// MarshalJSON 输出为 {"1": [x, y], ...}
func (c Coords) MarshalJSON() ([]byte, error) {
	out := make(map[string][2]int, len(c))
	for slot, p := range c {
		out[strconv.Itoa(int(slot))] = [2]int{p.X, p.Y}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解析 {"1": [x, y], ...}，忽略未知槽位
func (c *Coords) UnmarshalJSON(data []byte) error {
	var raw map[string][]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("解析坐标失败: %w", err)
	}

	out := make(Coords, len(raw))
	for key, v := range raw {
		n, err := strconv.Atoi(key)
		if err != nil || !Slot(n).Valid() {
			continue
		}
		if len(v) != 2 {
			return fmt.Errorf("坐标 %s 格式错误: %v", key, v)
		}
		out[Slot(n)] = auto.Point{X: v[0], Y: v[1]}
	}
	*c = out
	return nil
}

// Slots 已设置的槽位（升序）
func (c Coords) Slots() []Slot {
	slots := make([]Slot, 0, len(c))
	for s := range c {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// AutomationConfig 自动化配置
type AutomationConfig struct {
	ClickDelay        float64 `json:"click_delay"`
	InputDelay        float64 `json:"input_delay"`
	ScreenshotEnabled bool    `json:"screenshot_enabled"`
	Coords            Coords  `json:"coords"`
}

// DefaultAutomationConfig 默认配置
func DefaultAutomationConfig() *AutomationConfig {
	return &AutomationConfig{
		ClickDelay:        DefaultClickDelay,
		InputDelay:        DefaultInputDelay,
		ScreenshotEnabled: false,
		Coords:            Coords{},
	}
}

// ValidateDelay 延迟秒数必须是非负有限数
func ValidateDelay(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s 必须是非负秒数: %v", name, v)
	}
	return nil
}

// Validate 检查延迟设置
func (c *AutomationConfig) Validate() error {
	if err := ValidateDelay("click_delay", c.ClickDelay); err != nil {
		return err
	}
	return ValidateDelay("input_delay", c.InputDelay)
}

// Clone 深拷贝
func (c *AutomationConfig) Clone() *AutomationConfig {
	out := *c
	out.Coords = make(Coords, len(c.Coords))
	for k, v := range c.Coords {
		out.Coords[k] = v
	}
	return &out
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置位于 ~/.winmacro
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".winmacro"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, FileName),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件不存在时返回默认值
//
// 文件中缺失的字段取默认值，未知字段忽略。
func (m *Manager) Load() (*AutomationConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultAutomationConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultAutomationConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultAutomationConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultAutomationConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	if config.Coords == nil {
		config.Coords = Coords{}
	}

	return config, nil
}

// Save 保存配置，所有字段都会写出
func (m *Manager) Save(config *AutomationConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	c := config.Clone()
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := writeFileAtomic(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// writeFileAtomic 先写临时文件再重命名
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
