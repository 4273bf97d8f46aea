package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoeyai/winmacro/pkg/auto"
)

// BuyFileName 购买宏配置文件名
const BuyFileName = "buy_macros.json"

// BuyMacro 一组购买动作：对每个位置 shift+右键 → 输入数量 → 点击确认，重复若干轮
//
// 坐标为屏幕物理坐标。
type BuyMacro struct {
	Name      string       `json:"name"`
	Hotkey    string       `json:"hotkey"`
	Positions []auto.Point `json:"positions"`
	Confirm   auto.Point   `json:"confirm"`
	Quantity  string       `json:"quantity"`
	Rounds    int          `json:"rounds"`
}

// Validate 检查宏定义
func (b *BuyMacro) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("购买宏缺少名称")
	}
	if len(b.Positions) == 0 {
		return fmt.Errorf("购买宏 %s 没有物品位置", b.Name)
	}
	if b.Rounds <= 0 {
		return fmt.Errorf("购买宏 %s 轮数必须大于 0", b.Name)
	}
	return nil
}

// BuyConfig 购买宏列表
type BuyConfig struct {
	Macros []BuyMacro `json:"macros"`
}

// Find 按名称查找
func (c *BuyConfig) Find(name string) (*BuyMacro, bool) {
	for i := range c.Macros {
		if c.Macros[i].Name == name {
			return &c.Macros[i], true
		}
	}
	return nil, false
}

// DefaultBuyConfig 默认的三组药水
func DefaultBuyConfig() *BuyConfig {
	confirm := auto.Point{X: 1906, Y: 717}
	return &BuyConfig{Macros: []BuyMacro{
		{
			Name:      "攻击免疫",
			Hotkey:    "ctrl+f5",
			Positions: []auto.Point{{X: 1664, Y: 876}, {X: 1713, Y: 1050}, {X: 2088, Y: 939}},
			Confirm:   confirm,
			Quantity:  "999",
			Rounds:    3,
		},
		{
			Name:      "小吸红",
			Hotkey:    "ctrl+f6",
			Positions: []auto.Point{{X: 1664, Y: 936}, {X: 2065, Y: 824}, {X: 2065, Y: 997}},
			Confirm:   confirm,
			Quantity:  "999",
			Rounds:    3,
		},
		{
			Name:      "属性免疫",
			Hotkey:    "ctrl+f7",
			Positions: []auto.Point{{X: 1652, Y: 821}, {X: 1678, Y: 998}, {X: 2075, Y: 880}},
			Confirm:   confirm,
			Quantity:  "999",
			Rounds:    3,
		},
	}}
}

// BuyConfigFile 购买宏配置文件路径
func (m *Manager) BuyConfigFile() string {
	return filepath.Join(m.configDir, BuyFileName)
}

// LoadBuy 加载购买宏，文件不存在时返回默认值
func (m *Manager) LoadBuy() (*BuyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.BuyConfigFile())
	if os.IsNotExist(err) {
		return DefaultBuyConfig(), nil
	}
	if err != nil {
		return DefaultBuyConfig(), fmt.Errorf("读取购买宏配置失败: %w", err)
	}

	var config BuyConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return DefaultBuyConfig(), fmt.Errorf("解析购买宏配置失败: %w", err)
	}
	for i := range config.Macros {
		if err := config.Macros[i].Validate(); err != nil {
			return DefaultBuyConfig(), err
		}
	}

	return &config, nil
}

// SaveBuy 保存购买宏
func (m *Manager) SaveBuy(config *BuyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化购买宏配置失败: %w", err)
	}

	if err := writeFileAtomic(m.BuyConfigFile(), data, 0600); err != nil {
		return fmt.Errorf("写入购买宏配置失败: %w", err)
	}
	return nil
}
