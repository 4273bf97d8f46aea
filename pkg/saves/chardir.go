package saves

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CharacterDir 以角色名命名的配置目录
type CharacterDir struct {
	// Name 解码后的角色名
	Name string
	// Path 目录完整路径
	Path string
}

// DecodeDirName 目录名是角色名 GBK 编码的十六进制
func DecodeDirName(dirName string) (string, error) {
	if len(dirName) == 0 || len(dirName)%2 != 0 {
		return "", fmt.Errorf("不是角色目录: %s", dirName)
	}
	raw, err := hex.DecodeString(dirName)
	if err != nil {
		return "", fmt.Errorf("不是角色目录: %s", dirName)
	}
	name, err := Decode(raw, EncodingGBK)
	if err != nil {
		return "", err
	}
	if strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 }) {
		return "", fmt.Errorf("不是角色目录: %s", dirName)
	}
	return name, nil
}

// EncodeDirName 角色名转换为目录名（大写十六进制）
func EncodeDirName(name string) (string, error) {
	raw, err := Encode(name, EncodingGBK)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Discover 列出 root 下的角色目录，忽略无法解码的目录
func Discover(root string) ([]CharacterDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var dirs []CharacterDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, err := DecodeDirName(entry.Name())
		if err != nil {
			continue
		}
		dirs = append(dirs, CharacterDir{Name: name, Path: filepath.Join(root, entry.Name())})
	}
	return dirs, nil
}
