// Package saves 在多个角色存档之间复制配置
//
// 存档是 GBK 或 Windows-1252 编码的 JSON，读取时只做编码探测不改写文件，
// 写回时使用读取时的编码，写入前备份为 <file>.bak。
package saves

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// Encoding 存档编码
type Encoding string

const (
	EncodingGBK         Encoding = "gbk"
	EncodingWindows1252 Encoding = "windows-1252"
)

// detectOrder 探测顺序固定
var detectOrder = []Encoding{EncodingGBK, EncodingWindows1252}

// ErrDecodeMismatch 所有候选编码都无法解码
var ErrDecodeMismatch = errors.New("无法识别文件编码")

func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case EncodingGBK:
		return simplifiedchinese.GBK, nil
	case EncodingWindows1252:
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("不支持的编码: %s", string(e))
}

// Decode 按指定编码解码，出现替换字符视为不匹配
func Decode(raw []byte, enc Encoding) (string, error) {
	c, err := enc.codec()
	if err != nil {
		return "", err
	}
	out, err := c.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecodeMismatch, enc, err)
	}
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", fmt.Errorf("%w: %s 存在无法解码的字节", ErrDecodeMismatch, enc)
	}
	return string(out), nil
}

// DetectEncoding 依次尝试 GBK 和 Windows-1252，返回第一个能完整解码的编码
func DetectEncoding(raw []byte) (Encoding, string, error) {
	for _, enc := range detectOrder {
		text, err := Decode(raw, enc)
		if err == nil {
			return enc, text, nil
		}
	}
	return "", "", ErrDecodeMismatch
}

// Encode 按指定编码编码，遇到无法表示的字符返回错误
func Encode(text string, enc Encoding) ([]byte, error) {
	c, err := enc.codec()
	if err != nil {
		return nil, err
	}
	out, err := c.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("编码为 %s 失败: %w", enc, err)
	}
	return out, nil
}
