package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/macro"
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "逐行回放: 点击坐标1 → 输入 → 点击坐标2 [→ 点击坐标3]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(args[0])
		if err != nil {
			return err
		}
		screenNeeded, _ := cmd.Flags().GetBool("probe")
		if err := requireInput(screenNeeded); err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := resolveWindow(cmd, a.resolver)
		if err != nil {
			return err
		}
		a.controller.Store.Bind(h)

		session := a.controller.Session
		task, err := session.Start(lines)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		select {
		case <-task.Done():
		case <-ctx.Done():
			fmt.Println()
			done, total := session.Progress()
			logger.Warn("收到中断信号，正在停止 (已完成 %d/%d 行)...", done, total)
			session.Stop()
		}
		session.Wait()

		r := session.LastReport()
		fmt.Printf("共 %d 行, 完成 %d, 成功 %d, 失败 %d, 提示 %d, 用时 %v\n",
			r.Total, r.Processed, r.Succeeded, r.Failed, r.Flagged, r.Elapsed.Round(time.Millisecond))
		if r.Cancelled {
			return fmt.Errorf("已停止，完成 %d/%d 行", r.Processed, r.Total)
		}
		return nil
	},
}

var testCoordCmd = &cobra.Command{
	Use:   "test-coord <slot>",
	Short: "在坐标槽位处点击一次",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("%w: %s", macro.ErrInvalidSlot, args[0])
		}
		if err := requireInput(false); err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := resolveWindow(cmd, a.resolver)
		if err != nil {
			return err
		}
		a.controller.Store.Bind(h)

		task, err := a.controller.Session.TestCoordinate(config.Slot(n))
		if err != nil {
			return err
		}
		return task.Wait()
	},
}

// readLines 从文件或标准输入读取并清理行
func readLines(path string) ([]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("读取输入失败: %w", err)
	}
	return macro.SplitLines(string(data)), nil
}

func init() {
	for _, c := range []*cobra.Command{runCmd, testCoordCmd} {
		addWindowFlags(c)
		addSessionFlags(c)
	}
	rootCmd.AddCommand(runCmd, testCoordCmd)
}
