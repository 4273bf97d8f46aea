package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	goocr "github.com/getcharzp/go-ocr"

	"github.com/zoeyai/winmacro/internal/logger"
)

// ErrUnavailable 模型或运行库缺失
var ErrUnavailable = errors.New("OCR 不可用")

// Recognizer 文字识别接口
type Recognizer interface {
	Recognize(img image.Image) ([]OcrResult, error)
}

// TextRecognizer 基于 PaddleOCR 的识别器，串行调用引擎
type TextRecognizer struct {
	engine goocr.Engine
	config Config
	mu     sync.Mutex
}

// NewTextRecognizer 创建新的 OCR 识别器
func NewTextRecognizer(config Config) (*TextRecognizer, error) {
	if !config.Available() {
		return nil, fmt.Errorf("%w: 模型文件不完整 (%s)", ErrUnavailable, config.DetModelPath)
	}

	engine, err := goocr.NewPaddleOcrEngine(goocr.Config{
		OnnxRuntimeLibPath: config.OnnxRuntimeLibPath,
		DetModelPath:       config.DetModelPath,
		RecModelPath:       config.RecModelPath,
		DictPath:           config.DictPath,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}

	logger.Info("OCR 引擎初始化成功")

	return &TextRecognizer{
		engine: engine,
		config: config,
	}, nil
}

// global 全局识别器，首次使用时按配置创建，ClearCache 后可重新创建
var global struct {
	mu  sync.Mutex
	rec *TextRecognizer
	err error
	set bool
}

// InitGlobalRecognizer 使用指定配置创建全局识别器，已创建时返回上次的结果
func InitGlobalRecognizer(config Config) error {
	global.mu.Lock()
	defer global.mu.Unlock()
	if !global.set {
		global.rec, global.err = NewTextRecognizer(config)
		global.set = true
	}
	return global.err
}

// GetGlobalRecognizer 获取全局识别器，未创建时使用 DefaultConfig
func GetGlobalRecognizer() (*TextRecognizer, error) {
	if err := InitGlobalRecognizer(DefaultConfig()); err != nil {
		return nil, err
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.rec == nil {
		return nil, ErrUnavailable
	}
	return global.rec, nil
}

// Recognize 识别图像中的所有文字
func (r *TextRecognizer) Recognize(img image.Image) ([]OcrResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return nil, ErrUnavailable
	}

	startTime := time.Now()

	results, err := r.engine.RunOCR(img)
	if err != nil {
		elapsed := float64(time.Since(startTime).Milliseconds())
		logger.LogEvent("OCR", false, elapsed, "识别失败")
		return nil, fmt.Errorf("OCR 识别失败: %w", err)
	}

	ocrResults := make([]OcrResult, 0, len(results))
	for _, result := range results {
		ocrResults = append(ocrResults, convertResult(result))
	}

	elapsed := float64(time.Since(startTime).Milliseconds())
	logger.LogEvent("OCR", true, elapsed, fmt.Sprintf("识别到 %d 个文本", len(ocrResults)))

	return ocrResults, nil
}

// Close 释放资源
func (r *TextRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		r.engine.Destroy()
		r.engine = nil
	}
	return nil
}

// LinesContaining 返回包含 phrase 的识别行，保持识别顺序
func LinesContaining(results []OcrResult, phrase string) []string {
	var lines []string
	for _, r := range results {
		if strings.Contains(r.Text, phrase) {
			lines = append(lines, strings.TrimSpace(r.Text))
		}
	}
	return lines
}

// JoinText 拼接所有非空行
func JoinText(results []OcrResult, sep string) string {
	var texts []string
	for _, r := range results {
		if t := strings.TrimSpace(r.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, sep)
}

// convertResult 转换 go-ocr 结果为 OcrResult
func convertResult(result goocr.RecResult) OcrResult {
	// Box: [x1, y1, x2, y2]
	box := result.Box
	return newResult([4]int{box[0], box[1], box[2], box[3]}, result.Text, float64(result.Score))
}

func newResult(box [4]int, text string, score float64) OcrResult {
	return OcrResult{
		Text:       text,
		Confidence: score,
		Position: Point{
			X: (box[0] + box[2]) / 2,
			Y: (box[1] + box[3]) / 2,
		},
		Box: []Point{
			{X: box[0], Y: box[1]},
			{X: box[0], Y: box[3]},
			{X: box[2], Y: box[3]},
			{X: box[2], Y: box[1]},
		},
	}
}

// ClearCache 关闭并丢弃全局识别器
func ClearCache() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.rec != nil {
		global.rec.Close()
	}
	global.rec, global.err, global.set = nil, nil, false
}
