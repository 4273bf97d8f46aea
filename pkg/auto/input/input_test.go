package input

import (
	"errors"
	"testing"
	"time"

	"github.com/zoeyai/winmacro/pkg/auto"
	"github.com/zoeyai/winmacro/pkg/auto/window"
)

type posted struct {
	msg    uint32
	wParam uintptr
	lParam uintptr
}

type recordingPoster struct {
	msgs []posted
	fail uint32
}

func (p *recordingPoster) PostMessage(h window.Handle, msg uint32, wParam, lParam uintptr) error {
	if p.fail != 0 && msg == p.fail {
		return errors.New("投递被拒绝")
	}
	p.msgs = append(p.msgs, posted{msg, wParam, lParam})
	return nil
}

type stubBackend struct {
	alive     bool
	clientOrg auto.Point
	activated int
}

func (s *stubBackend) IsWindow(window.Handle) bool { return s.alive }
func (s *stubBackend) WindowRect(window.Handle) (auto.Rect, error) {
	return auto.Rect{Left: s.clientOrg.X - 8, Top: s.clientOrg.Y - 31, Right: s.clientOrg.X + 808, Bottom: s.clientOrg.Y + 608}, nil
}
func (s *stubBackend) ClientRect(window.Handle) (auto.Rect, error) {
	return auto.Rect{Right: 800, Bottom: 600}, nil
}
func (s *stubBackend) ClientToScreen(_ window.Handle, p auto.Point) (auto.Point, error) {
	return s.clientOrg.Add(p), nil
}
func (s *stubBackend) Activate(window.Handle) error {
	s.activated++
	return nil
}
func (s *stubBackend) List(string) ([]window.Info, error) { return nil, nil }

type fakeDriver struct {
	x, y   int
	moves  []auto.Point
	clicks []string
	keys   []string
	typed  string
}

func (d *fakeDriver) Location() (int, int) { return d.x, d.y }
func (d *fakeDriver) Move(x, y int) {
	d.x, d.y = x, y
	d.moves = append(d.moves, auto.Point{X: x, Y: y})
}
func (d *fakeDriver) Click(button string) { d.clicks = append(d.clicks, button) }
func (d *fakeDriver) KeyToggle(key string, down bool) error {
	state := "up"
	if down {
		state = "down"
	}
	d.keys = append(d.keys, key+":"+state)
	return nil
}
func (d *fakeDriver) TypeStr(text string) { d.typed += text }

func noSleep(time.Duration) {}

func TestMakeLParam(t *testing.T) {
	tests := []struct {
		x, y int
		want uintptr
	}{
		{0, 0, 0},
		{400, 200, 200<<16 | 400},
		{1, 32767, 0x7FFF<<16 | 1},
	}
	for _, tt := range tests {
		if got := MakeLParam(tt.x, tt.y); got != tt.want {
			t.Errorf("MakeLParam(%d, %d) = 0x%X, want 0x%X", tt.x, tt.y, got, tt.want)
		}
	}

	x, y := SplitLParam(MakeLParam(-5, 300))
	if x != -5 || y != 300 {
		t.Errorf("负坐标往返错误: (%d, %d)", x, y)
	}
}

func TestMessageClickSequence(t *testing.T) {
	poster := &recordingPoster{}
	r := NewMessage(poster, window.NewResolver(&stubBackend{alive: true}))
	r.sleep = noSleep

	if err := r.Click(0x10, 400, 200); err != nil {
		t.Fatalf("点击失败: %v", err)
	}

	want := []uint32{WMMouseMove, WMLButtonDown, WMLButtonUp}
	if len(poster.msgs) != len(want) {
		t.Fatalf("消息数量错误: %+v", poster.msgs)
	}
	for i, m := range poster.msgs {
		if m.msg != want[i] {
			t.Errorf("第 %d 条消息 = 0x%04X, want 0x%04X", i, m.msg, want[i])
		}
		if m.lParam != MakeLParam(400, 200) {
			t.Errorf("第 %d 条消息坐标错误", i)
		}
	}
	if poster.msgs[1].wParam != MKLButton {
		t.Errorf("按下消息应带 MK_LBUTTON")
	}
}

func TestMessageClickHoldDelay(t *testing.T) {
	var slept []time.Duration
	r := NewMessage(&recordingPoster{}, window.NewResolver(&stubBackend{alive: true}), auto.WithClickHold(70*time.Millisecond))
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := r.Click(1, 1, 1); err != nil {
		t.Fatal(err)
	}
	if len(slept) != 1 || slept[0] != 70*time.Millisecond {
		t.Errorf("按下与抬起之间应等待一次 ClickHold: %v", slept)
	}
}

func TestMessageTypeText(t *testing.T) {
	poster := &recordingPoster{}
	var slept int
	r := NewMessage(poster, window.NewResolver(&stubBackend{alive: true}))
	r.sleep = func(time.Duration) { slept++ }

	if err := r.TypeText(1, "ab礼😀"); err != nil {
		t.Fatal(err)
	}

	// 😀 需要两个 UTF-16 单元
	if len(poster.msgs) != 5 {
		t.Fatalf("应投递 5 条 WM_CHAR, got %d", len(poster.msgs))
	}
	if poster.msgs[0].wParam != 'a' || poster.msgs[2].wParam != '礼' {
		t.Errorf("字符顺序错误: %+v", poster.msgs)
	}
	if poster.msgs[3].wParam != 0xD83D || poster.msgs[4].wParam != 0xDE00 {
		t.Errorf("代理对错误: 0x%X 0x%X", poster.msgs[3].wParam, poster.msgs[4].wParam)
	}
	if slept != 4 {
		t.Errorf("字符之间应等待 4 次, got %d", slept)
	}
}

func TestMessageInvalidWindow(t *testing.T) {
	poster := &recordingPoster{}
	r := NewMessage(poster, window.NewResolver(&stubBackend{alive: false}))
	r.sleep = noSleep

	if err := r.Click(1, 1, 1); !errors.Is(err, auto.ErrWindowInvalid) {
		t.Errorf("失效窗口应返回 ErrWindowInvalid, got %v", err)
	}
	if err := r.TypeText(1, "x"); !errors.Is(err, auto.ErrWindowInvalid) {
		t.Errorf("失效窗口应返回 ErrWindowInvalid, got %v", err)
	}
	if len(poster.msgs) != 0 {
		t.Error("失效窗口不应投递任何消息")
	}
}

func TestMessagePostFailure(t *testing.T) {
	r := NewMessage(&recordingPoster{fail: WMLButtonDown}, window.NewResolver(&stubBackend{alive: true}))
	r.sleep = noSleep

	if err := r.Click(1, 1, 1); err == nil {
		t.Error("投递失败应返回错误")
	}
}

func TestGlobalClickRestoresCursor(t *testing.T) {
	backend := &stubBackend{alive: true, clientOrg: auto.Point{X: 100, Y: 100}}
	driver := &fakeDriver{x: 7, y: 9}
	g := NewGlobal(driver, window.NewResolver(backend))
	g.sleep = noSleep

	if err := g.Click(1, 400, 200); err != nil {
		t.Fatal(err)
	}

	if backend.activated != 1 {
		t.Errorf("全局点击前应激活窗口一次, got %d", backend.activated)
	}
	if len(driver.moves) != 2 || driver.moves[0] != (auto.Point{X: 500, Y: 300}) {
		t.Errorf("应先移动到屏幕坐标 (500,300): %+v", driver.moves)
	}
	if driver.x != 7 || driver.y != 9 {
		t.Errorf("操作后应恢复鼠标位置, got (%d, %d)", driver.x, driver.y)
	}
	if len(driver.clicks) != 1 || driver.clicks[0] != "left" {
		t.Errorf("点击记录错误: %v", driver.clicks)
	}
}

func TestGlobalClickWithModifier(t *testing.T) {
	driver := &fakeDriver{}
	g := NewGlobal(driver, window.NewResolver(&stubBackend{alive: true}), auto.WithoutCursorRestore())
	g.sleep = noSleep

	if err := g.ClickWith(1, 10, 10, "right", "shift"); err != nil {
		t.Fatal(err)
	}
	if len(driver.keys) != 2 || driver.keys[0] != "shift:down" || driver.keys[1] != "shift:up" {
		t.Errorf("修饰键顺序错误: %v", driver.keys)
	}
	if len(driver.moves) != 1 {
		t.Errorf("关闭恢复后只应移动一次: %+v", driver.moves)
	}
}

func TestGlobalInvalidWindow(t *testing.T) {
	driver := &fakeDriver{}
	g := NewGlobal(driver, window.NewResolver(&stubBackend{alive: false}))
	g.sleep = noSleep

	if err := g.TypeText(1, "abc"); !errors.Is(err, auto.ErrWindowInvalid) {
		t.Errorf("失效窗口应返回 ErrWindowInvalid, got %v", err)
	}
	if driver.typed != "" || len(driver.moves) != 0 {
		t.Error("失效窗口不应产生任何系统输入")
	}
}

func TestParseMechanism(t *testing.T) {
	if m, _ := ParseMechanism(""); m != MechanismMessage {
		t.Errorf("默认应为消息模式, got %s", m)
	}
	if m, _ := ParseMechanism("GLOBAL"); m != MechanismGlobal {
		t.Errorf("解析 global 失败, got %s", m)
	}
	if _, err := ParseMechanism("hid"); err == nil {
		t.Error("未知方式应返回错误")
	}
}
