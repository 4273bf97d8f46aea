package logger

import (
	"sync"
	"time"
)

// DefaultHistoryLimit 写日志文件时内存中保留的条目数
const DefaultHistoryLimit = 2000

// Entry 一条操作员可见的日志
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// History 只追加的日志历史，设置上限后丢弃最旧的条目
type History struct {
	mu          sync.RWMutex
	entries     []Entry
	limit       int
	subscribers []func(Entry)
}

// NewHistory 创建日志历史，limit<=0 表示不限
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// SetLimit 设置条目上限并立即裁剪，n<=0 表示不限
func (h *History) SetLimit(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limit = n
	h.trimLocked()
}

func (h *History) trimLocked() {
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = append([]Entry(nil), h.entries[len(h.entries)-h.limit:]...)
	}
}

// Append 追加一条记录并通知订阅者
func (h *History) Append(e Entry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.trimLocked()
	subs := h.subscribers
	h.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Subscribe 注册新条目回调，回调在写日志的 goroutine 上执行，回调内不能再写日志
func (h *History) Subscribe(fn func(Entry)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, fn)
}

// Entries 返回当前历史的副本
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len 返回条目数
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
