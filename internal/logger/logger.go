// Package logger 提供统一的日志工具
//
// 每条日志写入操作员可见的只追加历史（History），
// 控制台按级别着色，日志文件写纯文本。
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	// OFF 关闭全部输出
	OFF
)

var levelInfo = map[Level]struct {
	name  string
	color *color.Color
}{
	DEBUG: {"DEBUG", color.New(color.FgHiBlack)},
	INFO:  {"INFO", color.New(color.FgGreen)},
	WARN:  {"WARN", color.New(color.FgYellow)},
	ERROR: {"ERROR", color.New(color.FgRed, color.Bold)},
	OFF:   {"OFF", nil},
}

func (l Level) String() string {
	if info, ok := levelInfo[l]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// ParseLevel 解析日志级别（不区分大小写），无法识别时为 INFO
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WARN
	}
	for level, info := range levelInfo {
		if info.name == s {
			return level
		}
	}
	return INFO
}

// Logger 日志记录器
type Logger struct {
	mu      sync.Mutex
	level   Level
	console io.Writer
	colored bool
	fileOut *os.File
	history *History
}

// 全局默认 logger
var defaultLogger = New()

// New 创建输出到控制台的 Logger
func New() *Logger {
	return &Logger{
		level:   INFO,
		console: color.Output,
		colored: true,
		history: NewHistory(0),
	}
}

// NewWithWriter 创建输出到指定 writer 的 Logger，不着色
func NewWithWriter(w io.Writer) *Logger {
	l := New()
	l.console, l.colored = w, false
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel 设置日志级别，OFF 时历史也不再记录
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = nil
	if enabled {
		l.console, l.colored = color.Output, true
	}
}

// SetFile 追加写入日志文件，enabled 为 false 或 path 为空时关闭文件输出
func (l *Logger) SetFile(enabled bool, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		l.fileOut.Close()
		l.fileOut = nil
	}
	if !enabled || path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("无法打开日志文件: %w", err)
	}
	l.fileOut = f
	return nil
}

// History 返回操作员日志历史
func (l *Logger) History() *History {
	return l.history
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	now := time.Now()
	msg := fmt.Sprintf(format, args...)
	l.history.Append(Entry{Time: now, Level: level, Message: msg})

	ts := now.Format("15:04:05")
	plain := fmt.Sprintf("%-5s", level)
	if l.console != nil {
		levelText := plain
		if c := levelInfo[level].color; l.colored && c != nil {
			levelText = c.Sprint(plain)
		}
		fmt.Fprintf(l.console, "%s | %s | %s\n", ts, levelText, msg)
	}
	if l.fileOut != nil {
		fmt.Fprintf(l.fileOut, "%s %s | %s | %s\n", now.Format("2006-01-02"), ts, plain, msg)
	}
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info 信息日志
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn 警告日志
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error 错误日志
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// LogEvent 记录带分类的事件: 分类 | OK/NG | 耗时 | 详情，失败记为 ERROR
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	if ok {
		l.Info("%-4s | OK | %6.1fms | %s", category, elapsedMs, detail)
		return
	}
	l.Error("%-4s | NG | %6.1fms | %s", category, elapsedMs, detail)
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileOut == nil {
		return nil
	}
	err := l.fileOut.Close()
	l.fileOut = nil
	return err
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
