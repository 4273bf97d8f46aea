package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zoeyai/winmacro/pkg/auto"
)

func TestDefaultAutomationConfig(t *testing.T) {
	config := DefaultAutomationConfig()

	if config.ClickDelay != 0.5 {
		t.Errorf("默认 click_delay 应为 0.5, 实际为 %v", config.ClickDelay)
	}
	if config.InputDelay != 0.3 {
		t.Errorf("默认 input_delay 应为 0.3, 实际为 %v", config.InputDelay)
	}
	if config.ScreenshotEnabled {
		t.Error("默认 screenshot_enabled 应为 false")
	}
	if len(config.Coords) != 0 {
		t.Error("默认不应有坐标")
	}
}

func TestManagerLoadMissingFile(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("缺失文件不应报错: %v", err)
	}
	if !reflect.DeepEqual(config, DefaultAutomationConfig()) {
		t.Errorf("缺失文件应返回默认配置: %+v", config)
	}
}

// TestManagerRoundTrip 保存后加载应完全一致，未设置的槽位不出现
func TestManagerRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	config := &AutomationConfig{
		ClickDelay:        1.25,
		InputDelay:        0.05,
		ScreenshotEnabled: true,
		Coords: Coords{
			Slot1: {X: 400, Y: 200},
			Slot3: {X: -3, Y: 17},
		},
	}

	if err := manager.Save(config); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if !reflect.DeepEqual(loaded, config) {
		t.Errorf("往返不一致:\n期望 %+v\n实际 %+v", config, loaded)
	}

	data, err := os.ReadFile(manager.GetConfigFile())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"click_delay", "input_delay", "screenshot_enabled", "coords"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("保存的文件缺少字段 %s", key)
		}
	}

	var coords map[string][]int
	json.Unmarshal(raw["coords"], &coords)
	if _, ok := coords["2"]; ok {
		t.Error("未设置的槽位 2 不应写出")
	}
	if got := coords["1"]; len(got) != 2 || got[0] != 400 || got[1] != 200 {
		t.Errorf("槽位 1 格式错误: %v", got)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("文件中不应出现 null: %s", data)
	}

	t.Logf("配置文件内容:\n%s", data)
}

func TestManagerLoadPartialAndUnknown(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	content := `{"click_delay": 2, "coords": {"2": [5, 6], "9": [1, 1]}, "theme": "dark"}`
	if err := os.WriteFile(filepath.Join(tempDir, FileName), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if config.ClickDelay != 2 || config.InputDelay != DefaultInputDelay {
		t.Errorf("缺失字段应取默认值: %+v", config)
	}
	if len(config.Coords) != 1 || config.Coords[Slot2] != (auto.Point{X: 5, Y: 6}) {
		t.Errorf("坐标解析错误: %+v", config.Coords)
	}
}

func TestManagerLoadInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	os.WriteFile(filepath.Join(tempDir, FileName), []byte("invalid json"), 0600)

	config, err := manager.Load()
	if err == nil {
		t.Error("解析无效 JSON 应返回错误")
	}
	if !reflect.DeepEqual(config, DefaultAutomationConfig()) {
		t.Error("出错时应返回默认配置")
	}
}

func TestManagerClear(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
	manager.Save(DefaultAutomationConfig())
	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}
}

func TestBuyConfigRoundTrip(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	config, err := manager.LoadBuy()
	if err != nil {
		t.Fatalf("加载默认购买宏失败: %v", err)
	}
	if len(config.Macros) != 3 {
		t.Fatalf("默认应有 3 个购买宏, got %d", len(config.Macros))
	}

	config.Macros[0].Rounds = 5
	if err := manager.SaveBuy(config); err != nil {
		t.Fatal(err)
	}

	loaded, err := manager.LoadBuy()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := loaded.Find("攻击免疫")
	if !ok || m.Rounds != 5 || m.Quantity != "999" {
		t.Errorf("购买宏往返错误: %+v", m)
	}
}

func TestBuyMacroValidate(t *testing.T) {
	bad := BuyMacro{Name: "x", Rounds: 1}
	if err := bad.Validate(); err == nil {
		t.Error("没有位置的宏应校验失败")
	}
	bad = BuyMacro{Name: "x", Positions: []auto.Point{{X: 1, Y: 1}}}
	if err := bad.Validate(); err == nil {
		t.Error("轮数为 0 的宏应校验失败")
	}
}

func TestAutomationConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		click   float64
		input   float64
		wantErr bool
	}{
		{"默认值", 0.5, 0.3, false},
		{"零延迟", 0, 0, false},
		{"负点击延迟", -0.1, 0.3, true},
		{"负输入延迟", 0.5, -1, true},
		{"NaN", math.NaN(), 0.3, true},
		{"无穷大", 0.5, math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAutomationConfig()
			cfg.ClickDelay, cfg.InputDelay = tt.click, tt.input
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
