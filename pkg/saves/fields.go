package saves

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// 存档文件名
const (
	// DefaultSaveFile 角色默认配置
	DefaultSaveFile = "Default.save"
	// LoadoutSaveFile 装备方案
	LoadoutSaveFile = "Config.save"
	// SuitFile 套装方案
	SuitFile = "diy.suit"

	// LoadoutKey 装备方案列表键
	LoadoutKey = "diysuit_item"
)

// Field 可复制的顶层字段
type Field struct {
	Key   string
	Label string
}

// Fields 支持复制的字段，顺序即展示顺序
var Fields = []Field{
	{"item_use_data", "吃药"},
	{"item_buff_data", "buff药"},
	{"skill_buff_data", "buff技能"},
	{"item_filter_pick_data_1", "额外模糊拾取"},
	{"item_filter_pick_data_2", "额外模糊过滤"},
	{"item_filter_throw_data_1", "额外模糊丢弃"},
	{"item_filter_throw_data_2", "额外模糊保留"},
	{"diytrigger", "DIY指令"},
	{"pet_build", "智能联合宠物技能"},
	{"item_filter_disassemble", "物品分解"},
	{"item_filter_1", "物品设置1"},
	{"item_filter_2", "物品设置2"},
	{"item_filter_3", "物品设置3"},
	{"item_filter_4", "物品设置4"},
	{"store_items", "存取材料"},
}

// Groups 一个选项对应多个字段
var Groups = map[string][]string{
	"item_filter": {"item_filter_1", "item_filter_2", "item_filter_3", "item_filter_4"},
	"物品设置":        {"item_filter_1", "item_filter_2", "item_filter_3", "item_filter_4"},
}

// SuitKeys 套装方案的分类
var SuitKeys = map[string]string{
	"装备": "diysuit_item",
	"超越": "diysuit_property",
	"其他": "diysuit_other",
	"觉醒": "diysuit_awaken",
}

// Label 字段的中文名，未知字段返回键本身
func Label(key string) string {
	if f, ok := lo.Find(Fields, func(f Field) bool { return f.Key == key }); ok {
		return f.Label
	}
	return key
}

// AllFields 全部字段键
func AllFields() []string {
	return lo.Map(Fields, func(f Field, _ int) string { return f.Key })
}

// ResolveFields 把字段键、中文名或分组名展开为去重后的字段键
func ResolveFields(names []string) ([]string, error) {
	var keys []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			keys = append(keys, AllFields()...)
			continue
		}
		if group, ok := Groups[name]; ok {
			keys = append(keys, group...)
			continue
		}
		f, ok := lo.Find(Fields, func(f Field) bool { return f.Key == name || f.Label == name })
		if !ok {
			return nil, fmt.Errorf("未知字段: %s", name)
		}
		keys = append(keys, f.Key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("未选择任何字段")
	}
	return lo.Uniq(keys), nil
}

// SavePath 角色目录下的存档路径，configName 为空时使用 Default.save
func SavePath(dir, configName string) string {
	if configName == "" {
		return filepath.Join(dir, DefaultSaveFile)
	}
	return filepath.Join(dir, configName+".json")
}

// SavePaths 对每个角色目录拼接同名文件
func SavePaths(dirs []string, file string) []string {
	return lo.Map(dirs, func(d string, _ int) string { return filepath.Join(d, file) })
}
