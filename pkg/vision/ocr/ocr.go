// Package ocr 封装 PaddleOCR (go-ocr)，用于识别失败提示框中的文字
//
//	if err := ocr.InitGlobalRecognizer(ocr.ConfigFromDir(dir)); err != nil {
//	    return err
//	}
//	defer ocr.ClearCache()
//	results, err := ocr.RecognizeText("step_1.png")
//	for _, line := range ocr.LinesContaining(results, "错误的礼券号码") {
//	    fmt.Println(line)
//	}
package ocr

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// RecognizeText 用全局识别器识别文件路径或 image.Image
func RecognizeText(input interface{}) ([]OcrResult, error) {
	img, err := LoadImage(input)
	if err != nil {
		return nil, err
	}
	recognizer, err := GetGlobalRecognizer()
	if err != nil {
		return nil, err
	}
	return recognizer.Recognize(img)
}

// GetAllText 识别并以空格拼接所有行
func GetAllText(input interface{}) (string, error) {
	results, err := RecognizeText(input)
	if err != nil {
		return "", err
	}
	return JoinText(results, " "), nil
}

// LoadImage 加载图像，支持文件路径或 image.Image
func LoadImage(input interface{}) (image.Image, error) {
	switch v := input.(type) {
	case image.Image:
		return v, nil
	case string:
		f, err := os.Open(v)
		if err != nil {
			return nil, fmt.Errorf("打开图像文件失败: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("解码图像失败 %s: %w", v, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("不支持的图像输入类型: %T", input)
}
