package saves

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Loadout 装备方案列表中的一项
type Loadout struct {
	Index int
	Name  string
	Data  json.RawMessage
}

// element 数组元素，非对象元素只保留原始值
type element struct {
	obj *Object
	raw json.RawMessage
}

// LoadoutList 方案数组与名称索引
type LoadoutList struct {
	elems []element
	index map[string]int
}

// ParseLoadouts 解析 doc 中 listKey 对应的数组，键不存在或不是数组时返回 false
func ParseLoadouts(doc *Object, listKey string) (*LoadoutList, bool) {
	raw, ok := doc.Get(listKey)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	l := &LoadoutList{index: make(map[string]int, len(items))}
	for i, item := range items {
		obj, err := ParseObject(item)
		if err != nil {
			l.elems = append(l.elems, element{raw: item})
			continue
		}
		l.elems = append(l.elems, element{obj: obj})
		// 同名时第一个生效
		if name, ok := obj.String("name"); ok {
			if _, seen := l.index[name]; !seen {
				l.index[name] = i
			}
		}
	}
	return l, true
}

// Len 元素数量
func (l *LoadoutList) Len() int {
	return len(l.elems)
}

// Find 按名称查找
func (l *LoadoutList) Find(name string) (*Object, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.elems[i].obj, true
}

// Objects 所有对象元素
func (l *LoadoutList) Objects() []*Object {
	var out []*Object
	for _, e := range l.elems {
		if e.obj != nil {
			out = append(out, e.obj)
		}
	}
	return out
}

// Loadouts 列出所有方案，缺少名称的按序号命名
func (l *LoadoutList) Loadouts() []Loadout {
	var out []Loadout
	for i, e := range l.elems {
		if e.obj == nil {
			continue
		}
		name, ok := e.obj.String("name")
		if !ok {
			name = fmt.Sprintf("未命名配置_%d", i+1)
		}
		data, _ := e.obj.Get("data")
		out = append(out, Loadout{Index: i + 1, Name: name, Data: data})
	}
	return out
}

// MarshalJSON 按原顺序输出数组
func (l *LoadoutList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range l.elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if e.obj == nil {
			buf.Write(e.raw)
			continue
		}
		data, err := e.obj.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// NormalizeName 统一名称中的间隔号
//
// 存档中的 0xA1A4 按 GBK 解码为 U+00B7，片假名中点无法用 GBK 写回。
func NormalizeName(s string) string {
	return strings.ReplaceAll(s, "・", "·")
}
