package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/hotkey"
	"github.com/zoeyai/winmacro/pkg/macro"
)

var hotkeysCmd = &cobra.Command{
	Use:   "hotkeys",
	Short: "常驻监听全局热键 (坐标记录、连点、购买宏、回放)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(false); err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if h, err := resolveWindow(cmd, a.resolver); err == nil {
			a.controller.Store.Bind(h)
		} else if !errors.Is(err, macro.ErrNoWindowBound) {
			return err
		} else {
			logger.Warn("未绑定窗口，坐标记录与回放不可用")
		}

		buyCfg, err := a.manager.LoadBuy()
		if err != nil {
			logger.Warn("加载购买宏失败: %v", err)
		}

		ctx, stop := signalContext()
		defer stop()
		ctx, exit := context.WithCancel(ctx)
		defer exit()

		file, _ := cmd.Flags().GetString("file")
		l, err := bindHotkeys(a.controller, buyCfg, file, exit)
		if err != nil {
			return err
		}

		if bell, _ := cmd.Flags().GetBool("bell"); bell {
			logger.Default().History().Subscribe(func(e logger.Entry) {
				if e.Level >= logger.ERROR {
					fmt.Print("\a")
				}
			})
		}

		for _, b := range l.Bindings() {
			fmt.Printf("  %-10s %s\n", b.Combo, b.Name)
		}
		fmt.Printf("按 %s 或 Ctrl+C 退出\n", hotkey.Exit)

		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// bindHotkeys 把控制器操作绑定到热键
func bindHotkeys(c *macro.Controller, buyCfg *config.BuyConfig, file string, exit func()) (*hotkey.Listener, error) {
	l := hotkey.New()
	type binding struct {
		name, combo string
		action      func()
	}

	bindings := []binding{
		{"记录坐标1", hotkey.CaptureSlot1, func() { capture(c, config.Slot1) }},
		{"记录坐标2", hotkey.CaptureSlot2, func() { capture(c, config.Slot2) }},
		{"记录坐标3", hotkey.CaptureSlot3, func() { capture(c, config.Slot3) }},
		{"开始连点", hotkey.ClickerStart, func() {
			if !c.Clicker.Start() {
				logger.Warn("连点器已在运行")
			}
		}},
		{"停止连点", hotkey.ClickerStop, func() { c.Clicker.Stop(macro.EmergencyStopTimeout) }},
		{"显示鼠标位置", hotkey.ShowPosition, func() {
			p := input.CursorPosition(input.RobotgoDriver())
			logger.Info("鼠标位置: %s", formatPoint(p))
		}},
		{"紧急停止", hotkey.EmergencyStop, func() { c.EmergencyStop(macro.EmergencyStopTimeout) }},
		{"退出", hotkey.Exit, exit},
	}

	if file != "" {
		bindings = append(bindings,
			binding{"开始回放", hotkey.StartRun, func() {
				lines, err := readLines(file)
				if err == nil {
					_, err = c.Session.Start(lines)
				}
				if err != nil {
					logger.Error("无法开始: %v", err)
				}
			}},
			binding{"停止回放", hotkey.StopRun, func() { c.Session.Stop() }},
		)
	}

	if buyCfg != nil {
		for _, m := range buyCfg.Macros {
			if m.Hotkey == "" {
				continue
			}
			name := m.Name
			bindings = append(bindings, binding{"购买 " + name, m.Hotkey, func() {
				if _, err := c.RunBuy(buyCfg, name); err != nil {
					logger.Warn("购买宏 %s 未执行: %v", name, err)
				}
			}})
		}
	}

	for _, b := range bindings {
		if err := l.Bind(b.name, b.combo, b.action); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func capture(c *macro.Controller, slot config.Slot) {
	if _, err := c.Capturer.Capture(slot); err != nil {
		logger.Error("记录坐标%d失败: %v", slot, err)
	}
}

func init() {
	addWindowFlags(hotkeysCmd)
	addSessionFlags(hotkeysCmd)
	hotkeysCmd.Flags().String("file", "", fmt.Sprintf("回放输入文件，启用 %s 开始 / %s 停止", hotkey.StartRun, hotkey.StopRun))
	hotkeysCmd.Flags().Bool("bell", true, "出现错误日志时响铃")
	rootCmd.AddCommand(hotkeysCmd)
}
