package hotkey

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		combo string
		want  []string
		ok    bool
	}{
		{"ctrl+f5", []string{"ctrl", "f5"}, true},
		{"F1+Control", []string{"ctrl", "f1"}, true},
		{"alt + 1", []string{"alt", "1"}, true},
		{"shift+option+q", []string{"shift", "alt", "q"}, true},
		{"ctrl+", nil, false},
		{"ctrl+alt", nil, false},
		{"a+b", nil, false},
	}

	for _, tt := range tests {
		got, err := ParseCombo(tt.combo)
		if (err == nil) != tt.ok {
			t.Errorf("%q: 期望 ok=%v, err=%v", tt.combo, tt.ok, err)
			continue
		}
		if tt.ok && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: 期望 %v, 实际 %v", tt.combo, tt.want, got)
		}
	}
}

func TestBindAndTrigger(t *testing.T) {
	l := New()
	fired := make(chan string, 2)

	if err := l.Bind("capture1", CaptureSlot1, func() { fired <- "capture1" }); err != nil {
		t.Fatal(err)
	}
	if err := l.Bind("again", "1+ALT", func() {}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("相同组合键应报 ErrDuplicate, got %v", err)
	}
	if err := l.Bind("panic", EmergencyStop, func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}

	if len(l.Bindings()) != 2 {
		t.Fatalf("绑定数量错误: %d", len(l.Bindings()))
	}
	if !l.Trigger("capture1") {
		t.Fatal("应找到绑定")
	}
	select {
	case name := <-fired:
		if name != "capture1" {
			t.Errorf("触发了错误的动作: %s", name)
		}
	case <-time.After(time.Second):
		t.Fatal("动作未执行")
	}

	// 动作 panic 不应影响调用方
	l.Trigger("panic")
	if l.Trigger("missing") {
		t.Error("未绑定的名称不应触发")
	}
}
