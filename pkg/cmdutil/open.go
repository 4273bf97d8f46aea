// Package cmdutil 外部命令辅助函数
package cmdutil

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// OpenCommand 返回用系统文件管理器打开 path 的命令
func OpenCommand(goos, path string) *exec.Cmd {
	var cmd *exec.Cmd
	switch goos {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	hideConsole(cmd)
	return cmd
}

// OpenPath 打开文件或目录，不等待文件管理器退出
func OpenPath(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("路径不存在: %w", err)
	}
	if err := OpenCommand(runtime.GOOS, path).Start(); err != nil {
		return fmt.Errorf("打开 %s 失败: %w", path, err)
	}
	return nil
}
