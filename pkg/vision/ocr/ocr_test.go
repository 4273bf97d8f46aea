package ocr

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// getProjectRoot 获取项目根目录
func getProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	// ocr_test.go -> ocr -> vision -> pkg -> root
	return filepath.Join(filepath.Dir(filename), "..", "..", "..")
}

// setupOCRConfig 优先使用默认配置，否则使用项目根目录下的 models/
func setupOCRConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	if !config.Available() {
		config = ConfigFromDir(filepath.Join(getProjectRoot(), "models"))
	}
	if !config.Available() {
		t.Skipf("跳过测试：未找到 OCR 模型 (%s)", config.DetModelPath)
	}
	return config
}

func TestConvertResult(t *testing.T) {
	r := newResult([4]int{10, 20, 110, 60}, "错误的礼券号码", 0.5)

	if r.Position != (Point{X: 60, Y: 40}) {
		t.Errorf("中心点错误: %+v", r.Position)
	}
	if len(r.Box) != 4 || r.Box[2] != (Point{X: 110, Y: 60}) {
		t.Errorf("边界框错误: %+v", r.Box)
	}
	if r.Confidence != 0.5 {
		t.Errorf("置信度错误: %v", r.Confidence)
	}
}

func TestLinesContaining(t *testing.T) {
	results := []OcrResult{
		{Text: "提示"},
		{Text: " 错误的礼券号码，请重新输入 "},
		{Text: ""},
		{Text: "错误的礼券号码"},
	}

	got := LinesContaining(results, "错误的礼券号码")
	want := []string{"错误的礼券号码，请重新输入", "错误的礼券号码"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v, 实际 %v", want, got)
	}
	if LinesContaining(results, "成功") != nil {
		t.Error("无匹配时应返回 nil")
	}
	if JoinText(results, "|") != "提示|错误的礼券号码，请重新输入|错误的礼券号码" {
		t.Errorf("拼接错误: %s", JoinText(results, "|"))
	}
}

func TestConfigAvailable(t *testing.T) {
	orig := statFile
	defer func() { statFile = orig }()

	config := ConfigFromDir("/opt/models")
	if !strings.HasSuffix(config.DictPath, filepath.Join("paddle_weights", "dict.txt")) {
		t.Errorf("字典路径错误: %s", config.DictPath)
	}

	statFile = func(path string) (os.FileInfo, error) { return nil, nil }
	if !config.Available() {
		t.Error("文件都存在时应可用")
	}

	statFile = func(path string) (os.FileInfo, error) {
		if strings.HasSuffix(path, "rec.onnx") {
			return nil, os.ErrNotExist
		}
		return nil, nil
	}
	if config.Available() {
		t.Error("缺少识别模型时不应可用")
	}
	if _, err := NewTextRecognizer(config); !errors.Is(err, ErrUnavailable) {
		t.Errorf("应返回 ErrUnavailable, got %v", err)
	}
}

func TestDefaultConfigFallback(t *testing.T) {
	orig := statFile
	defer func() { statFile = orig }()

	statFile = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }
	dirs := ModelDirs()
	if len(dirs) == 0 || dirs[len(dirs)-1] != "models" {
		t.Fatalf("候选目录应以当前目录 models 结尾: %v", dirs)
	}
	if got, want := DefaultConfig(), ConfigFromDir(dirs[0]); got != want {
		t.Errorf("都不可用时应返回第一个候选: %+v", got)
	}

	last := ConfigFromDir("models")
	statFile = func(path string) (os.FileInfo, error) {
		if strings.HasPrefix(path, "models") {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}
	if got := DefaultConfig(); got != last {
		t.Errorf("应选择完整的模型目录: %+v", got)
	}
	if !IsAvailable() {
		t.Error("存在完整模型目录时应可用")
	}
}

func TestGlobalRecognizerUnavailable(t *testing.T) {
	orig := statFile
	defer func() { statFile = orig }()
	statFile = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	ClearCache()
	defer ClearCache()
	if err := InitGlobalRecognizer(ConfigFromDir(t.TempDir())); !errors.Is(err, ErrUnavailable) {
		t.Errorf("模型缺失应返回 ErrUnavailable, got %v", err)
	}
	if _, err := GetGlobalRecognizer(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("应复用首次创建的结果, got %v", err)
	}
	if _, err := RecognizeText(image.NewGray(image.Rect(0, 0, 2, 2))); err == nil {
		t.Error("识别器不可用时应报错")
	}
}

func TestLoadImageInput(t *testing.T) {
	if _, err := LoadImage(42); err == nil {
		t.Error("不支持的输入类型应报错")
	}
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("不存在的文件应报错")
	}
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	got, err := LoadImage(img)
	if err != nil || got != image.Image(img) {
		t.Errorf("image.Image 应原样返回: %v", err)
	}
}

// TestRecognizeRenderedText 渲染中文后识别，需要模型与中文字体
func TestRecognizeRenderedText(t *testing.T) {
	config := setupOCRConfig(t)
	f := loadChineseFont()
	if f == nil {
		t.Skip("跳过测试：未找到中文字体")
	}

	recognizer, err := NewTextRecognizer(config)
	if err != nil {
		t.Skipf("跳过测试：OCR 初始化失败: %v", err)
	}
	defer recognizer.Close()

	img := image.NewRGBA(image.Rect(0, 0, 480, 120))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawChineseText(img, f, 20, 30, "错误的礼券号码", 40, color.Black)

	results, err := recognizer.Recognize(img)
	if err != nil {
		t.Fatalf("识别失败: %v", err)
	}
	for i, r := range results {
		t.Logf("  [%d] 文字: '%s', 置信度: %.2f", i+1, r.Text, r.Confidence)
	}
	if len(LinesContaining(results, "礼券")) == 0 {
		t.Errorf("应识别出渲染的文字: %+v", results)
	}
}

// loadChineseFont 加载系统中文字体
func loadChineseFont() *truetype.Font {
	fontPaths := []string{
		"C:\\Windows\\Fonts\\simhei.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
		"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
		"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
	}

	for _, path := range fontPaths {
		fontBytes, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(fontBytes)
		if err != nil {
			continue
		}
		return f
	}
	return nil
}

// drawChineseText 在图像上绘制文字，y 为文字顶部
func drawChineseText(img *image.RGBA, f *truetype.Font, x, y int, text string, fontSize float64, col color.Color) {
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)

	pt := freetype.Pt(x, y+int(c.PointToFixed(fontSize)>>6))
	c.DrawString(text, pt)
}
