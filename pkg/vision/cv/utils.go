package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ImageToMat 将 image.Image 转换为 BGR 格式的 gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	dst := gocv.NewMat()
	gocv.CvtColor(mat, &dst, gocv.ColorRGBToBGR)
	mat.Close()
	return dst, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}

// ToGray 转换为灰度图
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// CropFraction 按比例区域 [x0, y0, x1, y1] 裁剪，越界部分被截断，区域为空时返回空 Mat
func CropFraction(img gocv.Mat, frac [4]float64) gocv.Mat {
	w, h := float64(img.Cols()), float64(img.Rows())
	r := image.Rect(int(frac[0]*w), int(frac[1]*h), int(frac[2]*w), int(frac[3]*h)).
		Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if r.Empty() {
		return gocv.NewMat()
	}

	region := img.Region(r)
	defer region.Close()
	return region.Clone()
}
