package macro

import (
	"strings"

	"github.com/samber/lo"
)

// CleanLines 去掉首尾空白并丢弃空行
func CleanLines(lines []string) []string {
	return lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})
}

// SplitLines 按换行拆分批量输入，兼容 \r\n
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return CleanLines(strings.Split(text, "\n"))
}

// preview 截断过长的行用于日志
func preview(line string, n int) string {
	r := []rune(line)
	if len(r) <= n {
		return line
	}
	return string(r[:n]) + "..."
}
