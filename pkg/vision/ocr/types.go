package ocr

import (
	"os"
	"path/filepath"
	"runtime"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OcrResult OCR 识别结果，一行一个
type OcrResult struct {
	// Text 识别的文字内容
	Text string `json:"text"`
	// Confidence 识别置信度 (0-1)
	Confidence float64 `json:"confidence"`
	// Position 文字中心位置
	Position Point `json:"position"`
	// Box 文字边界框四个角点
	Box []Point `json:"box,omitempty"`
}

// Config OCR 模型与运行库路径
type Config struct {
	OnnxRuntimeLibPath string
	DetModelPath       string
	RecModelPath       string
	DictPath           string
}

// ConfigFromDir 模型目录布局: <dir>/lib/<onnxruntime 动态库>, <dir>/paddle_weights/{det.onnx,rec.onnx,dict.txt}
func ConfigFromDir(dir string) Config {
	weights := filepath.Join(dir, "paddle_weights")
	return Config{
		OnnxRuntimeLibPath: filepath.Join(dir, "lib", onnxRuntimeLib()),
		DetModelPath:       filepath.Join(weights, "det.onnx"),
		RecModelPath:       filepath.Join(weights, "rec.onnx"),
		DictPath:           filepath.Join(weights, "dict.txt"),
	}
}

// DefaultConfig 依次查找候选模型目录，返回第一个完整的，都不完整时返回第一个候选
func DefaultConfig() Config {
	dirs := ModelDirs()
	for _, dir := range dirs {
		if c := ConfigFromDir(dir); c.Available() {
			return c
		}
	}
	return ConfigFromDir(dirs[0])
}

// ModelDirs 候选模型目录: 可执行文件旁、.app 的 Resources、~/.winmacro/models、当前目录
func ModelDirs() []string {
	var dirs []string
	if exe := executableDir(); exe != "" {
		dirs = append(dirs, filepath.Join(exe, "models"))
		if runtime.GOOS == "darwin" {
			dirs = append(dirs, filepath.Join(exe, "..", "Resources", "models"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".winmacro", "models"))
	}
	return append(dirs, "models")
}

// Available 配置中的文件是否都存在
func (c Config) Available() bool {
	for _, p := range []string{c.OnnxRuntimeLibPath, c.DetModelPath, c.RecModelPath, c.DictPath} {
		if _, err := statFile(p); err != nil {
			return false
		}
	}
	return true
}

// IsAvailable 默认配置是否可用
func IsAvailable() bool {
	return DefaultConfig().Available()
}

func onnxRuntimeLib() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// statFile 包装 os.Stat 以便测试
var statFile = os.Stat
