package screen

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto"
)

// TimestampLayout 截图文件名中的时间戳格式
const TimestampLayout = "20060102_150405"

// DefaultDir 默认截图目录
const DefaultDir = "screenshots"

// Saver 把截图保存为 <dir>/<prefix><timestamp>.png，目录在第一次保存时创建
type Saver struct {
	dir      string
	capturer Capturer
	now      func() time.Time

	once   sync.Once
	dirErr error
}

// NewSaver 创建截图保存器
func NewSaver(dir string, capturer Capturer) *Saver {
	if dir == "" {
		dir = DefaultDir
	}
	if capturer == nil {
		capturer = Default()
	}
	return &Saver{
		dir:      dir,
		capturer: capturer,
		now:      time.Now,
	}
}

// Dir 截图目录
func (s *Saver) Dir() string {
	return s.dir
}

// CaptureAndSave 截取区域并保存
func (s *Saver) CaptureAndSave(prefix string, r auto.Region) (string, error) {
	img, err := s.capturer.CaptureRegion(r)
	if err != nil {
		return "", err
	}
	return s.Save(prefix, img)
}

// Save 保存图像，返回文件路径
func (s *Saver) Save(prefix string, img image.Image) (string, error) {
	s.once.Do(func() {
		s.dirErr = os.MkdirAll(s.dir, 0755)
	})
	if s.dirErr != nil {
		return "", fmt.Errorf("创建截图目录失败: %w", s.dirErr)
	}

	name := SanitizeName(prefix) + s.now().Format(TimestampLayout) + ".png"
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建截图文件失败: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("编码截图失败: %w", err)
	}

	logger.Debug("截图已保存: %s", path)
	return path, nil
}

// SanitizeName 去掉文件名中 Windows 不允许的字符
func SanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, s)
}
