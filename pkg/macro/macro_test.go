package macro

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/input"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/config"
	"github.com/zoeyai/winmacro/pkg/executor"
)

type stubBackend struct {
	mu        sync.Mutex
	alive     bool
	clientOrg auto.Point
}

func (s *stubBackend) IsWindow(window.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}
func (s *stubBackend) WindowRect(window.Handle) (auto.Rect, error) {
	return auto.Rect{Left: s.clientOrg.X - 8, Top: s.clientOrg.Y - 31, Right: s.clientOrg.X + 808, Bottom: s.clientOrg.Y + 608}, nil
}
func (s *stubBackend) ClientRect(window.Handle) (auto.Rect, error) {
	return auto.Rect{Right: 800, Bottom: 600}, nil
}
func (s *stubBackend) ClientToScreen(_ window.Handle, p auto.Point) (auto.Point, error) {
	return s.clientOrg.Add(p), nil
}
func (s *stubBackend) Activate(window.Handle) error { return nil }
func (s *stubBackend) List(string) ([]window.Info, error) { return nil, nil }

func (s *stubBackend) kill() {
	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
}

type fakeDriver struct {
	mu     sync.Mutex
	x, y   int
	moves  []auto.Point
	clicks []string
	keys   []string
	typed  []string
}

func (d *fakeDriver) Location() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.x, d.y
}
func (d *fakeDriver) Move(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x, d.y = x, y
	d.moves = append(d.moves, auto.Point{X: x, Y: y})
}
func (d *fakeDriver) Click(button string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, button)
}
func (d *fakeDriver) KeyToggle(key string, down bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := "up"
	if down {
		state = "down"
	}
	d.keys = append(d.keys, key+":"+state)
	return nil
}
func (d *fakeDriver) TypeStr(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typed = append(d.typed, text)
}

// recordingReplayer 记录回放操作，可在指定操作时阻塞或失败
type recordingReplayer struct {
	mu       sync.Mutex
	ops      []string
	resolver *window.Resolver
	block    chan struct{}
	onType   func()
}

func (r *recordingReplayer) Mechanism() input.Mechanism { return input.MechanismMessage }

func (r *recordingReplayer) Click(h window.Handle, x, y int) error {
	if err := r.resolver.Validate(h); err != nil {
		return err
	}
	r.mu.Lock()
	r.ops = append(r.ops, fmt.Sprintf("click(%d,%d)", x, y))
	r.mu.Unlock()
	return nil
}

func (r *recordingReplayer) TypeText(h window.Handle, text string) error {
	if err := r.resolver.Validate(h); err != nil {
		return err
	}
	r.mu.Lock()
	r.ops = append(r.ops, "type("+text+")")
	r.mu.Unlock()
	if r.onType != nil {
		r.onType()
	}
	if r.block != nil {
		<-r.block
	}
	return nil
}

func (r *recordingReplayer) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type fixture struct {
	backend  *stubBackend
	resolver *window.Resolver
	store    *Store
	replayer *recordingReplayer
	exec     *executor.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &stubBackend{alive: true, clientOrg: auto.Point{X: 100, Y: 100}}
	resolver := window.NewResolver(backend)
	cfg := config.DefaultAutomationConfig()
	cfg.ClickDelay = 0
	cfg.InputDelay = 0
	store := NewStore(cfg, nil)
	exec := executor.New("test", 4)
	t.Cleanup(exec.Close)
	return &fixture{
		backend:  backend,
		resolver: resolver,
		store:    store,
		replayer: &recordingReplayer{resolver: resolver},
		exec:     exec,
	}
}

func (f *fixture) session(opts ...SessionOption) *Session {
	opts = append([]SessionOption{WithStepDelay(0)}, opts...)
	return NewSession(f.store, f.resolver, f.replayer, f.exec, opts...)
}

func (f *fixture) bindWithCoords(slots ...config.Slot) {
	f.store.Bind(window.Handle(0x1234))
	for _, slot := range slots {
		f.store.SetCoordinate(Coordinate{Slot: slot, X: int(slot) * 10, Y: int(slot) * 20})
	}
}

func TestCaptureRelativeToClient(t *testing.T) {
	f := newFixture(t)
	driver := &fakeDriver{x: 500, y: 300}
	capturer := NewCapturer(f.store, f.resolver, driver)

	if _, err := capturer.Capture(config.Slot1); !errors.Is(err, ErrNoWindowBound) {
		t.Errorf("未绑定窗口时应返回 ErrNoWindowBound, got %v", err)
	}

	f.store.Bind(window.Handle(0x1234))
	c, err := capturer.Capture(config.Slot1)
	if err != nil {
		t.Fatalf("捕获失败: %v", err)
	}
	if c.X != 400 || c.Y != 200 {
		t.Errorf("期望 (400, 200), 实际 (%d, %d)", c.X, c.Y)
	}
	stored, ok := f.store.Coordinate(config.Slot1)
	if !ok || stored != c {
		t.Errorf("坐标未写入存储: %+v", stored)
	}

	if _, err := capturer.Capture(config.Slot(4)); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("槽位 4 应返回 ErrInvalidSlot, got %v", err)
	}

	f.backend.kill()
	if _, err := capturer.Capture(config.Slot2); !errors.Is(err, auto.ErrWindowInvalid) {
		t.Errorf("窗口失效时应返回 ErrWindowInvalid, got %v", err)
	}
	if _, ok := f.store.Coordinate(config.Slot2); ok {
		t.Error("失败的捕获不应写入坐标")
	}
}

// TestCaptureThenReplay 捕获后回放应落在同一屏幕点，窗口移动后跟随
func TestCaptureThenReplay(t *testing.T) {
	f := newFixture(t)
	f.store.Bind(window.Handle(0x1234))

	driver := &fakeDriver{x: 523, y: 377}
	capturer := NewCapturer(f.store, f.resolver, driver)
	c, err := capturer.Capture(config.Slot2)
	if err != nil {
		t.Fatal(err)
	}

	global := input.NewGlobal(driver, f.resolver,
		auto.WithClickHold(0), auto.WithActivateDelay(0), auto.WithoutCursorRestore())

	if err := global.Click(f.store.Handle(), c.X, c.Y); err != nil {
		t.Fatal(err)
	}
	if got := driver.moves[len(driver.moves)-1]; got != (auto.Point{X: 523, Y: 377}) {
		t.Errorf("回放位置错误: %+v", got)
	}

	f.backend.clientOrg = auto.Point{X: 300, Y: 50}
	if err := global.Click(f.store.Handle(), c.X, c.Y); err != nil {
		t.Fatal(err)
	}
	if got := driver.moves[len(driver.moves)-1]; got != (auto.Point{X: 723, Y: 327}) {
		t.Errorf("窗口移动后回放位置错误: %+v", got)
	}
}

func TestSessionStartRejections(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	if _, err := s.Start([]string{"a"}); !errors.Is(err, ErrNoWindowBound) {
		t.Errorf("未绑定窗口应拒绝, got %v", err)
	}

	f.store.Bind(window.Handle(0x1234))
	if _, err := s.Start([]string{"a"}); !errors.Is(err, ErrMissingCoordinate) {
		t.Errorf("缺少坐标应拒绝, got %v", err)
	}

	f.bindWithCoords(config.Slot1)
	if _, err := s.Start([]string{"a"}); !errors.Is(err, ErrMissingCoordinate) {
		t.Errorf("缺少坐标2应拒绝, got %v", err)
	}

	f.bindWithCoords(config.Slot1, config.Slot2)
	if _, err := s.Start([]string{"", "   ", "\t"}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("空输入应拒绝, got %v", err)
	}

	if len(f.replayer.snapshot()) != 0 {
		t.Error("被拒绝的启动不应产生任何输入")
	}
	if s.State() != StateIdle {
		t.Errorf("被拒绝后应保持 IDLE, got %s", s.State())
	}
}

func TestSessionRunsLinesInOrder(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	s := f.session()

	if _, err := s.Start([]string{" 甲 ", "", "乙"}); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	s.Wait()

	want := []string{
		"click(10,20)", "type(甲)", "click(20,40)",
		"click(10,20)", "type(乙)", "click(20,40)",
	}
	if got := f.replayer.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("操作序列错误:\n期望 %v\n实际 %v", want, got)
	}

	report := s.LastReport()
	if report.Total != 2 || report.Processed != 2 || report.Succeeded != 2 || report.Cancelled {
		t.Errorf("报告错误: %+v", report)
	}
	if s.State() != StateIdle {
		t.Errorf("结束后应为 IDLE, got %s", s.State())
	}
}

func TestSessionThirdCoordinate(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2, config.Slot3)
	s := f.session()

	if _, err := s.Start([]string{"x"}); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	want := []string{"click(10,20)", "type(x)", "click(20,40)", "click(30,60)"}
	if got := f.replayer.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 实际 %v", want, got)
	}
}

func TestSessionProbeFlagsLine(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)

	calls := 0
	prober := ProbeFunc(func(ctx context.Context, h window.Handle) (ProbeResult, error) {
		calls++
		switch calls {
		case 1:
			return ProbeResult{Matched: true, Text: "错误的礼券号码"}, nil
		case 2:
			return ProbeResult{}, errors.New("识别不可用")
		}
		return ProbeResult{}, nil
	})
	s := f.session(WithProber(prober))

	s.Start([]string{"a", "b", "c"})
	s.Wait()

	report := s.LastReport()
	if report.Flagged != 1 || report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("检测结果统计错误: %+v", report)
	}
}

// TestSessionWindowInvalidFailsLine 窗口失效只让当前行失败，不中止会话
func TestSessionWindowInvalidFailsLine(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	f.replayer.onType = func() { f.backend.kill() }
	s := f.session()

	s.Start([]string{"a", "b"})
	s.Wait()

	report := s.LastReport()
	if report.Processed != 2 || report.Failed != 2 {
		t.Errorf("两行都应失败但被处理: %+v", report)
	}
	if report.Cancelled {
		t.Error("窗口失效不应视为取消")
	}
}

func TestSessionStopReachesIdle(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	block := make(chan struct{})
	f.replayer.block = block
	s := f.session()

	if _, err := s.Start([]string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start([]string{"x"}); !errors.Is(err, ErrBusy) {
		t.Errorf("运行中再次启动应返回 ErrBusy, got %v", err)
	}

	waitFor(t, func() bool { return len(f.replayer.snapshot()) >= 2 })
	if !s.Stop() {
		t.Fatal("Stop 应返回 true")
	}
	if s.State() != StateCancelled {
		t.Errorf("停止中应为 CANCELLED, got %s", s.State())
	}
	close(block)
	s.Wait()

	if s.State() != StateIdle {
		t.Errorf("停止后应回到 IDLE, got %s", s.State())
	}
	report := s.LastReport()
	if !report.Cancelled || report.Processed != 0 {
		t.Errorf("第一行在输入后被中止，不应计入: %+v", report)
	}
	for _, op := range f.replayer.snapshot() {
		if op == "type(b)" {
			t.Error("停止后不应处理后续行")
		}
	}
	if s.Stop() {
		t.Error("IDLE 时 Stop 应返回 false")
	}
}

// TestSessionRestartAfterDone 上一任务刚结束就启动的新会话不应被旧任务收尾影响
func TestSessionRestartAfterDone(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	s := f.session()

	for i := 0; i < 200; i++ {
		f.replayer.block = nil
		var first *executor.Task
		waitFor(t, func() bool {
			task, err := s.Start([]string{"a"})
			if err != nil && !errors.Is(err, ErrBusy) {
				t.Fatalf("第 %d 轮启动失败: %v", i, err)
			}
			first = task
			return err == nil
		})
		s.mu.Lock()
		firstSettled := s.finished
		s.mu.Unlock()
		<-first.Done()

		block := make(chan struct{})
		f.replayer.block = block
		waitFor(t, func() bool {
			_, err := s.Start([]string{"b"})
			if err != nil && !errors.Is(err, ErrBusy) {
				t.Fatalf("第 %d 轮再次启动失败: %v", i, err)
			}
			return err == nil
		})
		<-firstSettled

		if got := s.State(); got != StateRunning {
			t.Fatalf("第 %d 轮: 新会话应为 RUNNING, got %s", i, got)
		}
		if !s.Stop() {
			t.Fatalf("第 %d 轮: 新会话 Stop 应返回 true", i)
		}
		close(block)
		s.Wait()
		if got := s.State(); got != StateIdle {
			t.Fatalf("第 %d 轮: 停止后应回到 IDLE, got %s", i, got)
		}
	}
}

func TestSessionFinishLineOnCancel(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	block := make(chan struct{})
	f.replayer.block = block
	s := f.session(WithFinishLineOnCancel())

	s.Start([]string{"a", "b"})
	waitFor(t, func() bool { return len(f.replayer.snapshot()) >= 2 })
	s.Stop()
	close(block)
	s.Wait()

	want := []string{"click(10,20)", "type(a)", "click(20,40)"}
	if got := f.replayer.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("应完成当前行后停止:\n期望 %v\n实际 %v", want, got)
	}
	if r := s.LastReport(); r.Processed != 1 || !r.Cancelled {
		t.Errorf("报告错误: %+v", r)
	}
}

func TestStoreCoordinateWritesConfig(t *testing.T) {
	manager := config.NewManagerWithDir(t.TempDir())
	store := LoadStore(manager)

	if err := store.SetCoordinate(Coordinate{Slot: config.Slot3, X: 7, Y: 9}); err != nil {
		t.Fatal(err)
	}
	loaded, err := manager.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Coords[config.Slot3] != (auto.Point{X: 7, Y: 9}) {
		t.Errorf("坐标未落盘: %+v", loaded.Coords)
	}
	if err := store.SetCoordinate(Coordinate{Slot: 0}); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("槽位 0 应无效, got %v", err)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("AAAA-1111\r\n\r\n  BBBB-2222  \n\n")
	want := []string{"AAAA-1111", "BBBB-2222"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 实际 %v", want, got)
	}
	if preview("一二三四五", 3) != "一二三..." {
		t.Errorf("截断错误: %s", preview("一二三四五", 3))
	}
}

func testMacro() config.BuyMacro {
	return config.BuyMacro{
		Name:      "测试药",
		Positions: []auto.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
		Confirm:   auto.Point{X: 9, Y: 9},
		Quantity:  "999",
		Rounds:    2,
	}
}

func TestBuyRunnerSequence(t *testing.T) {
	exec := executor.New("buy", 4)
	defer exec.Close()
	driver := &fakeDriver{}
	runner := NewBuyRunner(exec, driver, nil)
	runner.keyDelay, runner.roundDelay = 0, 0

	task, err := runner.Run(testMacro())
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(); err != nil {
		t.Fatalf("购买失败: %v", err)
	}

	if len(driver.typed) != 4 {
		t.Errorf("2 轮 × 2 个位置应输入 4 次, got %d", len(driver.typed))
	}
	wantClicks := []string{"right", "left", "right", "left", "right", "left", "right", "left"}
	if !reflect.DeepEqual(driver.clicks, wantClicks) {
		t.Errorf("点击序列错误: %v", driver.clicks)
	}
	for i := 0; i < len(driver.keys); i += 2 {
		if driver.keys[i] != "shift:down" || driver.keys[i+1] != "shift:up" {
			t.Errorf("shift 未成对: %v", driver.keys)
			break
		}
	}
	if driver.moves[0] != (auto.Point{X: 1, Y: 2}) || driver.moves[1] != (auto.Point{X: 9, Y: 9}) {
		t.Errorf("移动序列错误: %v", driver.moves)
	}
}

func TestBuyRunnerMutualExclusion(t *testing.T) {
	exec := executor.New("buy", 4)
	defer exec.Close()
	runner := NewBuyRunner(exec, &fakeDriver{}, nil)
	runner.keyDelay = 50 * time.Millisecond

	task, err := runner.Run(testMacro())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runner.Run(testMacro()); !errors.Is(err, ErrBusy) {
		t.Errorf("购买进行中应返回 ErrBusy, got %v", err)
	}

	task.Cancel()
	if err := task.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("取消后应返回 context.Canceled, got %v", err)
	}
}

func TestBuyRefusedWhileClicking(t *testing.T) {
	exec := executor.New("buy", 4)
	defer exec.Close()
	driver := &fakeDriver{}
	clicker := NewAutoClicker(driver, time.Millisecond)
	runner := NewBuyRunner(exec, driver, clicker)

	clicker.Start()
	defer clicker.Stop(time.Second)

	if _, err := runner.Run(testMacro()); !errors.Is(err, ErrClickerActive) {
		t.Errorf("连点时应拒绝购买, got %v", err)
	}
}

func TestAutoClicker(t *testing.T) {
	driver := &fakeDriver{}
	clicker := NewAutoClicker(driver, time.Millisecond)

	if !clicker.Start() {
		t.Fatal("首次启动应成功")
	}
	if clicker.Start() {
		t.Error("重复启动应返回 false")
	}
	waitFor(t, func() bool { return clicker.Clicks() >= 3 })

	if !clicker.Stop(time.Second) {
		t.Error("Stop 应返回 true")
	}
	if clicker.Active() {
		t.Error("停止后不应处于连点状态")
	}
	n := clicker.Clicks()
	time.Sleep(10 * time.Millisecond)
	if clicker.Clicks() != n {
		t.Error("停止后不应继续点击")
	}
	if clicker.Stop(time.Second) {
		t.Error("未运行时 Stop 应返回 false")
	}
}

func TestControllerEmergencyStop(t *testing.T) {
	f := newFixture(t)
	f.bindWithCoords(config.Slot1, config.Slot2)
	block := make(chan struct{})
	f.replayer.block = block

	c := NewController(f.store, f.resolver, f.replayer, &fakeDriver{}, WithStepDelay(0))
	defer c.Shutdown()

	if _, err := c.Session.Start([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(f.replayer.snapshot()) >= 2 })

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(block)
	}()
	if !c.EmergencyStop(time.Second) {
		t.Error("紧急停止应在超时前完成")
	}
	c.Session.Wait()
	if c.Session.State() != StateIdle {
		t.Errorf("紧急停止后应为 IDLE, got %s", c.Session.State())
	}

	if _, err := c.RunBuy(config.DefaultBuyConfig(), "不存在"); !errors.Is(err, ErrMissingMacro) {
		t.Errorf("未知购买宏应返回 ErrMissingMacro, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

func TestSessionTestCoordinate(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	if _, err := s.TestCoordinate(config.Slot1); !errors.Is(err, ErrNoWindowBound) {
		t.Errorf("未绑定窗口应返回 ErrNoWindowBound, got %v", err)
	}
	f.bindWithCoords(config.Slot1)
	if _, err := s.TestCoordinate(config.Slot(7)); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("非法槽位应返回 ErrInvalidSlot, got %v", err)
	}
	if _, err := s.TestCoordinate(config.Slot2); !errors.Is(err, ErrMissingCoordinate) {
		t.Errorf("未设置的槽位应返回 ErrMissingCoordinate, got %v", err)
	}

	task, err := s.TestCoordinate(config.Slot1)
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := f.replayer.snapshot(); !reflect.DeepEqual(got, []string{"click(10,20)"}) {
		t.Errorf("应只点击一次坐标1: %v", got)
	}
}
