// Package process 查找游戏客户端进程，检查窗口所属进程是否存活
package process

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/process"
)

// Info 客户端进程
type Info struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// BaseName 去掉 .exe 的进程名
func (i Info) BaseName() string {
	return strings.TrimSuffix(i.Name, filepath.Ext(i.Name))
}

// Find 按名称部分匹配（不区分大小写），name 为空时返回全部，结果按 PID 排序
func Find(name string) ([]Info, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	name = strings.ToLower(strings.TrimSuffix(name, ".exe"))
	matches := lo.FilterMap(procs, func(p *process.Process, _ int) (Info, bool) {
		procName, err := p.Name()
		if err != nil {
			return Info{}, false
		}
		if name != "" && !strings.Contains(strings.ToLower(procName), name) {
			return Info{}, false
		}
		exe, _ := p.Exe()
		return Info{PID: int(p.Pid), Name: procName, Path: exe}, true
	})

	sort.Slice(matches, func(i, j int) bool { return matches[i].PID < matches[j].PID })
	return matches, nil
}

// Lookup 读取指定 PID 的进程
func Lookup(pid int) (*Info, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("无效的 PID: %d", pid)
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}
	name, err := p.Name()
	if err != nil {
		return nil, fmt.Errorf("读取进程名失败: PID=%d: %w", pid, err)
	}
	exe, _ := p.Exe()
	return &Info{PID: pid, Name: name, Path: exe}, nil
}

// Alive 进程是否仍在运行，窗口句柄为 PID 的平台用它判断句柄有效
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
