package vision

// Options 失败提示检测参数
type Options struct {
	// Region 提示框在窗口中的比例区域 [x0, y0, x1, y1]
	Region [4]float64
	// MinRedPixels 红色像素超过该值才进行识别
	MinRedPixels int
	// BinaryThreshold 反相二值化阈值
	BinaryThreshold float32
	// Phrase 失败提示文字
	Phrase string
}

// DefaultOptions 默认参数：窗口中下部的提示框，红字“错误的礼券号码”
var DefaultOptions = Options{
	Region:          [4]float64{0.3, 0.6, 0.7, 0.8},
	MinRedPixels:    1000,
	BinaryThreshold: 150,
	Phrase:          "错误的礼券号码",
}

// Option 配置选项函数类型
type Option func(*Options)

// WithRegion 设置检测区域
func WithRegion(x0, y0, x1, y1 float64) Option {
	return func(o *Options) {
		o.Region = [4]float64{x0, y0, x1, y1}
	}
}

// WithPhrase 设置失败提示文字
func WithPhrase(phrase string) Option {
	return func(o *Options) {
		o.Phrase = phrase
	}
}

// WithMinRedPixels 设置红色像素阈值
func WithMinRedPixels(n int) Option {
	return func(o *Options) {
		o.MinRedPixels = n
	}
}

// WithFullWindow 检测整个窗口
func WithFullWindow() Option {
	return WithRegion(0, 0, 1, 1)
}

func applyOptions(opts ...Option) Options {
	o := DefaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
