package saves

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Object 保持键顺序的 JSON 对象，值保留原始文本
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewObject 创建空对象
func NewObject() *Object {
	return &Object{values: make(map[string]json.RawMessage)}
}

// ParseObject 解析 JSON 对象，重复键保留第一次出现的位置和最后一次的值
func ParseObject(data []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("解析 JSON 失败: 顶层不是对象")
	}

	o := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("解析 JSON 失败: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("解析 JSON 失败: 非法键 %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("解析 JSON 失败: %s: %w", key, err)
		}
		o.Set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("解析 JSON 失败: 对象后存在多余内容")
	}
	return o, nil
}

// Keys 键列表（原始顺序）
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len 键数量
func (o *Object) Len() int {
	return len(o.keys)
}

// Has 是否存在键
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Get 原始值
func (o *Object) Get(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set 设置原始值，新键追加到末尾
func (o *Object) Set(key string, value json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = append(json.RawMessage(nil), value...)
}

// SetValue 序列化 v 后设置
func (o *Object) SetValue(key string, v any) error {
	raw, err := marshalValue(v)
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// Object 取子对象
func (o *Object) Object(key string) (*Object, bool) {
	raw, ok := o.values[key]
	if !ok {
		return nil, false
	}
	child, err := ParseObject(raw)
	if err != nil {
		return nil, false
	}
	return child, true
}

// String 取字符串值
func (o *Object) String(key string) (string, bool) {
	raw, ok := o.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// MarshalJSON 按键顺序输出紧凑 JSON
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalValue(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(o.values[key])
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Compact(&out, buf.Bytes()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Indent 4 空格缩进输出，非 ASCII 字符原样保留
func (o *Object) Indent() ([]byte, error) {
	compact, err := o.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// marshalValue 序列化单个值，不转义 HTML 字符
func marshalValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("序列化失败: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Document 一个存档文件
type Document struct {
	*Object
	// Path 文件路径
	Path string
	// Encoding 读取时探测到的编码，写回时使用
	Encoding Encoding
	// Raw 读取时的原始字节
	Raw []byte
}

// LoadDocument 读取并解析存档，不改写文件
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(path, raw)
}

// ParseDocument 探测编码并解析
func ParseDocument(path string, raw []byte) (*Document, error) {
	enc, text, err := DetectEncoding(raw)
	if err != nil {
		return nil, err
	}
	obj, err := ParseObject([]byte(text))
	if err != nil {
		return nil, err
	}
	return &Document{Object: obj, Path: path, Encoding: enc, Raw: raw}, nil
}

// Encode 按读取时的编码输出
func (d *Document) Encode() ([]byte, error) {
	text, err := d.Indent()
	if err != nil {
		return nil, err
	}
	return Encode(string(text), d.Encoding)
}
