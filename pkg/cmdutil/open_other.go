//go:build !windows

package cmdutil

import "os/exec"

func hideConsole(*exec.Cmd) {}
