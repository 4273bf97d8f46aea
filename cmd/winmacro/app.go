package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/screen"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/macro"
	"github.com/zoeyai/winmacro/pkg/permissions"
	"github.com/zoeyai/winmacro/pkg/process"
	"github.com/zoeyai/winmacro/pkg/vision"
	"github.com/zoeyai/winmacro/pkg/vision/ocr"
)

// configManager 按 --config-dir 创建配置管理器
func configManager(cmd *cobra.Command) *config.Manager {
	if dir, _ := cmd.Flags().GetString("config-dir"); dir != "" {
		return config.NewManagerWithDir(dir)
	}
	return config.NewManager()
}

// addWindowFlags 窗口绑定参数
func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("hwnd", "", "窗口句柄 (Windows 为 HWND，其他平台为进程 PID)")
	cmd.Flags().String("title", "", "按标题查找窗口 (部分匹配)")
	cmd.Flags().String("process", "", "按进程名查找窗口 (部分匹配)")
}

// resolveWindow 按参数查找目标窗口
func resolveWindow(cmd *cobra.Command, resolver *window.Resolver) (window.Handle, error) {
	hwnd, _ := cmd.Flags().GetString("hwnd")
	title, _ := cmd.Flags().GetString("title")
	procName, _ := cmd.Flags().GetString("process")

	switch {
	case hwnd != "":
		v, err := strconv.ParseUint(hwnd, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("窗口句柄格式错误: %s", hwnd)
		}
		h := window.Handle(v)
		if err := resolver.Validate(h); err != nil {
			return 0, err
		}
		return h, nil

	case title != "":
		info, err := resolver.FindByTitle(title)
		if err != nil {
			return 0, err
		}
		logger.Info("已绑定窗口: %s (%s)", info.Title, info.Handle)
		return info.Handle, nil

	case procName != "":
		return findProcessWindow(resolver, procName)
	}
	return 0, macro.ErrNoWindowBound
}

// findProcessWindow 返回第一个属于该进程的窗口
func findProcessWindow(resolver *window.Resolver, name string) (window.Handle, error) {
	procs, err := process.Find(name)
	if err != nil {
		return 0, err
	}
	if len(procs) == 0 {
		return 0, fmt.Errorf("未找到进程: %s", name)
	}

	windows, err := resolver.List("")
	if err != nil {
		return 0, err
	}
	for _, p := range procs {
		for _, w := range windows {
			if w.PID == p.PID {
				logger.Info("已绑定窗口: %s (%s, PID %d)", w.Title, w.Handle, w.PID)
				return w.Handle, nil
			}
		}
	}
	return 0, fmt.Errorf("进程 %s 没有可见窗口", name)
}

// addSessionFlags 回放参数
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("mechanism", string(input.MechanismMessage), "回放方式: message (后台消息) 或 global (前台鼠标键盘)")
	cmd.Flags().String("screenshots", screen.DefaultDir, "截图目录")
	cmd.Flags().Bool("probe", false, "每行结束后检测失败提示")
	cmd.Flags().String("models", "", "OCR 模型目录 (包含 lib/ 与 paddle_weights/)")
	cmd.Flags().Bool("finish-line", false, "停止时先完成当前行")
	defaults := auto.DefaultOptions()
	cmd.Flags().Duration("click-hold", defaults.ClickHold, "按下与抬起的间隔")
	cmd.Flags().Duration("char-interval", defaults.CharInterval, "后台输入的字符间隔")
}

// app 一次命令运行所需的组件
type app struct {
	manager    *config.Manager
	resolver   *window.Resolver
	controller *macro.Controller
	closers    []func()
}

// newApp 按参数组装控制器
func newApp(cmd *cobra.Command) (*app, error) {
	manager := configManager(cmd)
	resolver := window.Default()
	store := macro.LoadStore(manager)

	mechName, _ := cmd.Flags().GetString("mechanism")
	mech, err := input.ParseMechanism(mechName)
	if err != nil {
		return nil, err
	}
	hold, _ := cmd.Flags().GetDuration("click-hold")
	interval, _ := cmd.Flags().GetDuration("char-interval")
	replayer, err := input.New(mech, resolver, auto.WithClickHold(hold), auto.WithCharInterval(interval))
	if err != nil {
		return nil, err
	}

	a := &app{manager: manager, resolver: resolver}

	shotDir, _ := cmd.Flags().GetString("screenshots")
	opts := []macro.SessionOption{macro.WithSaver(screen.NewSaver(shotDir, screen.Default()))}
	if finish, _ := cmd.Flags().GetBool("finish-line"); finish {
		opts = append(opts, macro.WithFinishLineOnCancel())
	}
	if probe, _ := cmd.Flags().GetBool("probe"); probe {
		models, _ := cmd.Flags().GetString("models")
		opts = append(opts, macro.WithProber(a.newProber(resolver, models)))
	}

	a.controller = macro.NewController(store, resolver, replayer, input.RobotgoDriver(), opts...)
	a.closers = append(a.closers, a.controller.Shutdown)
	return a, nil
}

// newProber 创建失败提示检测器，OCR 不可用时只做颜色判断
func (a *app) newProber(resolver *window.Resolver, models string) macro.Prober {
	cfg := ocr.DefaultConfig()
	if models != "" {
		cfg = ocr.ConfigFromDir(models)
	}

	var recognizer ocr.Recognizer
	tr, err := ocr.NewTextRecognizer(cfg)
	if err != nil {
		logger.Warn("OCR 不可用，失败提示检测只统计红色像素: %v", err)
	} else {
		recognizer = tr
		a.closers = append(a.closers, func() { tr.Close() })
	}

	prober := vision.NewProber(resolver, screen.Default(), recognizer)
	return macro.ProbeFunc(func(ctx context.Context, h window.Handle) (macro.ProbeResult, error) {
		res, err := prober.Probe(ctx, h)
		if res == nil {
			return macro.ProbeResult{}, err
		}
		if errors.Is(err, ocr.ErrUnavailable) {
			logger.Debug("红色像素 %d，OCR 不可用，跳过文字识别", res.RedPixels)
			err = nil
		}
		return macro.ProbeResult{Matched: res.Matched, Text: res.Text}, err
	})
}

// Close 停止所有操作并释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// requireInput 检查输入控制权限
func requireInput(screenNeeded bool) error {
	status := permissions.Check()
	if err := permissions.Require(status, screenNeeded); err != nil {
		fmt.Println(permissions.Instructions(status))
		return err
	}
	return nil
}

// signalContext Ctrl+C 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// registryPath 账号注册表路径
func registryPath(cmd *cobra.Command, file string) string {
	return filepath.Join(configManager(cmd).GetConfigDir(), file)
}

func formatPoint(p auto.Point) string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
