package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/screen"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/macro"
	"github.com/zoeyai/winmacro/pkg/permissions"
	"github.com/zoeyai/winmacro/pkg/vision/ocr"
)

var windowsCmd = &cobra.Command{
	Use:   "windows [filter]",
	Short: "列出可见窗口",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		list, err := window.List(filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HANDLE\tPID\tSIZE\tTITLE")
		for _, info := range list {
			fmt.Fprintf(w, "%s\t%d\t%dx%d\t%s\n", info.Handle, info.PID,
				info.Bounds.Width(), info.Bounds.Height(), info.Title)
		}
		return w.Flush()
	},
}

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "显示窗口外框与客户区",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := window.Default()
		h, err := resolveWindow(cmd, resolver)
		if err != nil {
			return err
		}
		g, err := resolver.Resolve(h)
		if err != nil {
			return err
		}
		fmt.Printf("窗口: %+v\n", g.Window)
		fmt.Printf("客户区: %+v\n", g.Client)
		fmt.Printf("边框宽度: %d, 标题栏高度: %d\n", g.BorderWidth, g.TitleBarHeight)
		return nil
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture <slot>",
	Short: "倒计时后记录鼠标位置为坐标槽位 (1-3)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || !config.Slot(n).Valid() {
			return fmt.Errorf("%w: %s", macro.ErrInvalidSlot, args[0])
		}
		if err := requireInput(false); err != nil {
			return err
		}

		manager := configManager(cmd)
		resolver := window.Default()
		h, err := resolveWindow(cmd, resolver)
		if err != nil {
			return err
		}
		store := macro.LoadStore(manager)
		store.Bind(h)

		delay, _ := cmd.Flags().GetDuration("delay")
		fmt.Printf("请在 %v 内把鼠标移到目标位置...\n", delay)
		time.Sleep(delay)

		c, err := macro.NewCapturer(store, resolver, input.RobotgoDriver()).Capture(config.Slot(n))
		if err != nil {
			return err
		}
		fmt.Printf("坐标%d: (%d, %d)，已保存到 %s\n", c.Slot, c.X, c.Y, manager.GetConfigFile())
		return nil
	},
}

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "显示已保存的坐标与延迟设置",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configManager(cmd).Load()
		if err != nil {
			return err
		}
		fmt.Printf("点击延迟: %.2fs, 输入延迟: %.2fs, 截图: %v\n", cfg.ClickDelay, cfg.InputDelay, cfg.ScreenshotEnabled)
		for _, slot := range []config.Slot{config.Slot1, config.Slot2, config.Slot3} {
			if p, ok := cfg.Coords[slot]; ok {
				fmt.Printf("坐标%d: %s\n", slot, formatPoint(p))
			} else {
				fmt.Printf("坐标%d: 未设置\n", slot)
			}
		}
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "修改延迟与截图设置",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := macro.LoadStore(configManager(cmd))
		next := store.Snapshot()
		if cmd.Flags().Changed("click-delay") {
			next.ClickDelay, _ = cmd.Flags().GetFloat64("click-delay")
		}
		if cmd.Flags().Changed("input-delay") {
			next.InputDelay, _ = cmd.Flags().GetFloat64("input-delay")
		}
		if cmd.Flags().Changed("screenshot") {
			next.ScreenshotEnabled, _ = cmd.Flags().GetBool("screenshot")
		}
		if err := next.Validate(); err != nil {
			return err
		}
		return store.Update(func(cfg *config.AutomationConfig) {
			cfg.ClickDelay = next.ClickDelay
			cfg.InputDelay = next.InputDelay
			cfg.ScreenshotEnabled = next.ScreenshotEnabled
		})
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查显示器、OCR 模型与系统权限",
	Run: func(cmd *cobra.Command, args []string) {
		for i, b := range screen.DisplayBounds() {
			fmt.Printf("显示器 %d: %dx%d @ (%d, %d)\n", i, b.Width(), b.Height(), b.Left, b.Top)
		}
		fmt.Printf("DPI 缩放: %.0f%%\n", auto.DPIScale()*100)
		fmt.Printf("OCR 模型: %v\n", ocr.IsAvailable())

		status := permissions.Check()
		fmt.Printf("辅助功能: %v\n", status.Accessibility)
		fmt.Printf("屏幕录制: %v\n", status.ScreenRecording)
		if status.AllGranted() {
			fmt.Println("✓ 所有权限已授予")
			return
		}
		fmt.Println(permissions.Instructions(status))
		if open, _ := cmd.Flags().GetBool("open"); open {
			if !status.Accessibility && permissions.RequestAccessibility() {
				status.Accessibility = true
			}
			permissions.OpenSettings(status)
		}
	},
}

func init() {
	addWindowFlags(geometryCmd)
	addWindowFlags(captureCmd)
	captureCmd.Flags().Duration("delay", 3*time.Second, "记录前的等待时间")

	setCmd.Flags().Float64("click-delay", config.DefaultClickDelay, "点击后等待秒数")
	setCmd.Flags().Float64("input-delay", config.DefaultInputDelay, "输入后等待秒数")
	setCmd.Flags().Bool("screenshot", false, "每行结束后截图")

	doctorCmd.Flags().Bool("open", false, "打开缺失权限的系统设置")

	rootCmd.AddCommand(windowsCmd, geometryCmd, captureCmd, coordsCmd, setCmd, doctorCmd)
}
