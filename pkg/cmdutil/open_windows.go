package cmdutil

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// hideConsole 启动时不弹出控制台窗口
func hideConsole(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
