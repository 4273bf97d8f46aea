// Package vision 检测窗口中的失败提示框
//
// 先统计提示区域内的红色像素，超过阈值后再二值化并做 OCR，
// 在识别结果中查找失败提示文字。
package vision

import (
	"context"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto/screen"
	"github.com/zoeyai/winmacro/pkg/auto/window"
	"github.com/zoeyai/winmacro/pkg/vision/cv"
	"github.com/zoeyai/winmacro/pkg/vision/ocr"
)

// Result 检测结果
type Result struct {
	// Matched 是否出现失败提示
	Matched bool `json:"matched"`
	// Text 第一条包含提示文字的识别行
	Text string `json:"text,omitempty"`
	// RedPixels 区域内红色像素数
	RedPixels int `json:"red_pixels"`
}

// Prober 失败提示检测器
type Prober struct {
	resolver   *window.Resolver
	capturer   screen.Capturer
	recognizer ocr.Recognizer
	opts       Options
}

// NewProber 创建检测器，recognizer 为 nil 时只做颜色判断并返回 ocr.ErrUnavailable
func NewProber(resolver *window.Resolver, capturer screen.Capturer, recognizer ocr.Recognizer, opts ...Option) *Prober {
	return &Prober{
		resolver:   resolver,
		capturer:   capturer,
		recognizer: recognizer,
		opts:       applyOptions(opts...),
	}
}

// Options 当前参数
func (p *Prober) Options() Options {
	return p.opts
}

// Probe 截取窗口提示区域并检测，ctx 取消后不再做 OCR
func (p *Prober) Probe(ctx context.Context, h window.Handle) (*Result, error) {
	geo, err := p.resolver.Resolve(h)
	if err != nil {
		return nil, err
	}

	r := p.opts.Region
	region := geo.Window.ToRegion().SubRegion(r[0], r[1], r[2], r[3])
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("检测区域为空: %+v", region)
	}

	img, err := p.capturer.CaptureRegion(region)
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	mat, err := cv.ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return p.inspect(ctx, mat)
}

// InspectWindow 检测整窗截图，先按提示区域裁剪
func (p *Prober) InspectWindow(img image.Image) (*Result, error) {
	mat, err := cv.ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	crop := cv.CropFraction(mat, p.opts.Region)
	defer crop.Close()
	if crop.Empty() {
		return nil, fmt.Errorf("检测区域为空: %v", p.opts.Region)
	}
	return p.inspect(context.Background(), crop)
}

// Inspect 检测一张已截取的提示区域图像
func (p *Prober) Inspect(img image.Image) (*Result, error) {
	mat, err := cv.ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return p.inspect(context.Background(), mat)
}

func (p *Prober) inspect(ctx context.Context, mat gocv.Mat) (*Result, error) {
	start := time.Now()

	res := &Result{RedPixels: cv.CountInRanges(mat, cv.RedRanges...)}
	logger.Debug("红色像素数: %d", res.RedPixels)
	if res.RedPixels <= p.opts.MinRedPixels {
		return res, nil
	}

	if p.recognizer == nil {
		return res, ocr.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	bin := cv.Binarize(mat, p.opts.BinaryThreshold)
	defer bin.Close()
	binImg, err := cv.MatToImage(bin)
	if err != nil {
		return res, err
	}

	lines, err := p.recognizer.Recognize(binImg)
	if err != nil {
		return res, err
	}

	if found := ocr.LinesContaining(lines, p.opts.Phrase); len(found) > 0 {
		res.Matched = true
		res.Text = found[0]
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000
	logger.LogEvent("PROBE", !res.Matched, elapsed, fmt.Sprintf("red=%d matched=%v", res.RedPixels, res.Matched))
	return res, nil
}
