package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/screen"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/executor"
)

// State 会话状态
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateCancelled State = "CANCELLED"
)

// 合法的状态迁移
var transitions = map[State][]State{
	StateIdle:      {StateRunning},
	StateRunning:   {StateIdle, StateCancelled},
	StateCancelled: {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DefaultStepDelay 点击输入框与输入文本之间的固定间隔
const DefaultStepDelay = 100 * time.Millisecond

// ProbeResult 失败提示检测结果
type ProbeResult struct {
	Matched bool
	Text    string
}

// Prober 每行结束后检测窗口是否出现失败提示，尽力而为
type Prober interface {
	Probe(ctx context.Context, h window.Handle) (ProbeResult, error)
}

// ProbeFunc 函数适配 Prober
type ProbeFunc func(ctx context.Context, h window.Handle) (ProbeResult, error)

// Probe 实现 Prober
func (f ProbeFunc) Probe(ctx context.Context, h window.Handle) (ProbeResult, error) {
	return f(ctx, h)
}

// Report 一次会话的结果
type Report struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Flagged   int           `json:"flagged"`
	Cancelled bool          `json:"cancelled"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SessionOption 会话选项
type SessionOption func(*Session)

// WithSaver 每行结束后截图保存
func WithSaver(saver *screen.Saver) SessionOption {
	return func(s *Session) { s.saver = saver }
}

// WithProber 每行结束后检测失败提示
func WithProber(p Prober) SessionOption {
	return func(s *Session) { s.prober = p }
}

// WithFinishLineOnCancel 取消时先完成当前行
func WithFinishLineOnCancel() SessionOption {
	return func(s *Session) { s.finishLine = true }
}

// WithStepDelay 设置点击与输入之间的间隔
func WithStepDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.stepDelay = d }
}

// Session 批量回放会话
//
// 状态：IDLE → RUNNING → (IDLE | CANCELLED → IDLE)。任务在输入执行器上运行，
// 与购买宏互斥。
type Session struct {
	store    *Store
	resolver *window.Resolver
	replayer input.Replayer
	exec     *executor.Executor

	saver      *screen.Saver
	prober     Prober
	finishLine bool
	stepDelay  time.Duration

	mu       sync.Mutex
	state    State
	task     *executor.Task
	finished chan struct{}
	report   Report
	done     int
}

// NewSession 创建会话
func NewSession(store *Store, resolver *window.Resolver, replayer input.Replayer, exec *executor.Executor, opts ...SessionOption) *Session {
	s := &Session{
		store:     store,
		resolver:  resolver,
		replayer:  replayer,
		exec:      exec,
		stepDelay: DefaultStepDelay,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress 已处理行数与总行数
func (s *Session) Progress() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done, s.report.Total
}

// LastReport 最近一次会话的结果
func (s *Session) LastReport() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func (s *Session) setStateLocked(to State) {
	if !canTransition(s.state, to) {
		logger.Warn("非法状态迁移: %s → %s", s.state, to)
		return
	}
	logger.Debug("会话状态: %s → %s", s.state, to)
	s.state = to
}

// Start 校验前置条件后开始回放，立即返回
func (s *Session) Start(lines []string) (*executor.Task, error) {
	lines = CleanLines(lines)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil, ErrBusy
	}

	h := s.store.Handle()
	if h == 0 {
		return nil, ErrNoWindowBound
	}
	for _, slot := range []config.Slot{config.Slot1, config.Slot2} {
		if _, ok := s.store.Coordinate(slot); !ok {
			return nil, fmt.Errorf("%w: 坐标%d", ErrMissingCoordinate, slot)
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	s.state = StateRunning
	s.report = Report{Total: len(lines)}
	s.done = 0

	task, err := s.exec.TrySubmit("automation", func(ctx context.Context) error {
		return s.run(ctx, h, lines)
	})
	if err != nil {
		s.state = StateIdle
		if errors.Is(err, executor.ErrBusy) {
			return nil, ErrBusy
		}
		return nil, err
	}
	s.task = task
	s.finished = make(chan struct{})
	go s.settle(task, s.finished)
	return task, nil
}

// settle 任务结束后确保回到 IDLE，包括开始前被取消或 panic 的情况
func (s *Session) settle(task *executor.Task, finished chan struct{}) {
	<-task.Done()

	s.mu.Lock()
	// 新会话可能已在 Done 与加锁之间启动
	if s.task == task && s.state != StateIdle {
		logger.Warn("会话异常结束: %v", task.Err())
		s.report.Cancelled = errors.Is(task.Err(), context.Canceled)
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()
	close(finished)
}

// Stop 请求停止，返回是否有正在运行的会话
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return false
	}
	s.setStateLocked(StateCancelled)
	if s.task != nil {
		s.task.Cancel()
	}
	logger.Info("正在停止自动化...")
	return true
}

// Wait 等待当前会话结束并回到 IDLE
func (s *Session) Wait() {
	s.mu.Lock()
	finished := s.finished
	s.mu.Unlock()
	if finished != nil {
		<-finished
	}
}

func (s *Session) run(ctx context.Context, h window.Handle, lines []string) error {
	start := time.Now()
	total := len(lines)
	report := Report{Total: total}

	lineCtx := ctx
	if s.finishLine {
		lineCtx = context.WithoutCancel(ctx)
	}

	logger.Info("开始自动化，共 %d 行", total)

	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		logger.Info("正在处理第 %d/%d 行: %s", i+1, total, preview(line, 20))

		flagged, err := s.runLine(lineCtx, h, i, line)
		if errors.Is(err, context.Canceled) {
			break
		}

		report.Processed++
		switch {
		case err != nil:
			report.Failed++
			logger.Error("第 %d 行处理失败: %v", i+1, err)
		case flagged:
			report.Flagged++
		default:
			report.Succeeded++
		}
		logger.Info("第 %d 行处理完成", i+1)

		s.mu.Lock()
		s.done = report.Processed
		s.mu.Unlock()
	}

	report.Cancelled = ctx.Err() != nil && report.Processed < total
	report.Elapsed = time.Since(start)

	if report.Processed == total && !report.Cancelled {
		logger.Info("所有行处理完成，共 %d 行 (失败 %d, 提示 %d)", total, report.Failed, report.Flagged)
	} else {
		logger.Warn("自动化已停止，完成 %d/%d 行", report.Processed, total)
	}

	s.mu.Lock()
	s.report = report
	if s.state == StateRunning && ctx.Err() != nil {
		s.setStateLocked(StateCancelled)
	}
	s.setStateLocked(StateIdle)
	s.mu.Unlock()

	if report.Cancelled {
		return context.Canceled
	}
	return nil
}

// runLine 执行一行：点击坐标1 → 输入 → 点击坐标2 → 截图/检测 → 可选点击坐标3
func (s *Session) runLine(ctx context.Context, h window.Handle, index int, line string) (bool, error) {
	cfg := s.store.Snapshot()

	step := func(fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn()
	}
	click := func(slot config.Slot) func() error {
		return func() error {
			c, ok := s.store.Coordinate(slot)
			if !ok {
				return fmt.Errorf("%w: 坐标%d", ErrMissingCoordinate, slot)
			}
			return s.replayer.Click(h, c.X, c.Y)
		}
	}

	if err := step(click(config.Slot1)); err != nil {
		return false, err
	}
	if err := auto.Sleep(ctx, s.stepDelay); err != nil {
		return false, err
	}
	if err := step(func() error { return s.replayer.TypeText(h, line) }); err != nil {
		return false, err
	}
	if err := auto.Sleep(ctx, auto.Seconds(cfg.InputDelay)); err != nil {
		return false, err
	}
	if err := step(click(config.Slot2)); err != nil {
		return false, err
	}
	if err := auto.Sleep(ctx, auto.Seconds(cfg.ClickDelay)); err != nil {
		return false, err
	}

	if cfg.ScreenshotEnabled && s.saver != nil {
		s.screenshot(h, index, line)
	}

	flagged := s.probe(ctx, h, index)

	if _, ok := cfg.Coords[config.Slot3]; ok {
		if err := auto.Sleep(ctx, auto.Seconds(cfg.ClickDelay)); err != nil {
			return flagged, err
		}
		if err := step(click(config.Slot3)); err != nil {
			return flagged, err
		}
	}
	return flagged, nil
}

func (s *Session) screenshot(h window.Handle, index int, line string) {
	geo, err := s.resolver.Resolve(h)
	if err != nil {
		logger.Warn("截图失败: %v", err)
		return
	}
	prefix := fmt.Sprintf("step_%d_%s_", index+1, screen.SanitizeName(preview(line, 20)))
	path, err := s.saver.CaptureAndSave(prefix, geo.Window.ToRegion())
	if err != nil {
		logger.Warn("截图失败: %v", err)
		return
	}
	logger.Debug("截图已保存: %s", path)
}

func (s *Session) probe(ctx context.Context, h window.Handle, index int) bool {
	if s.prober == nil {
		return false
	}
	res, err := s.prober.Probe(ctx, h)
	if err != nil {
		logger.Debug("失败提示检测出错: %v", err)
		return false
	}
	if res.Matched {
		logger.Error("错误: %s", res.Text)
		return true
	}
	logger.Info("第 %d 行处理成功", index+1)
	return false
}

// TestCoordinate 在槽位坐标处点击一次
func (s *Session) TestCoordinate(slot config.Slot) (*executor.Task, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	h := s.store.Handle()
	if h == 0 {
		return nil, ErrNoWindowBound
	}
	c, ok := s.store.Coordinate(slot)
	if !ok {
		return nil, fmt.Errorf("%w: 坐标%d", ErrMissingCoordinate, slot)
	}
	return s.exec.TrySubmit(fmt.Sprintf("test-coord-%d", slot), func(ctx context.Context) error {
		logger.Info("测试坐标%d: (%d, %d)", slot, c.X, c.Y)
		return s.replayer.Click(h, c.X, c.Y)
	})
}
