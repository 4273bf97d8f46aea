package cv

import (
	"gocv.io/x/gocv"
)

// HSVRange OpenCV HSV 区间，H 取值 0-180，S/V 取值 0-255
type HSVRange struct {
	HMin, SMin, VMin float64
	HMax, SMax, VMax float64
}

// RedRanges 红色跨越色相环两端，需要两段区间
var RedRanges = []HSVRange{
	{HMin: 0, SMin: 70, VMin: 50, HMax: 10, SMax: 255, VMax: 255},
	{HMin: 170, SMin: 70, VMin: 50, HMax: 180, SMax: 255, VMax: 255},
}

// InRange 生成 BGR 图像在指定 HSV 区间内的掩码
func InRange(bgr gocv.Mat, r HSVRange) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	lower := gocv.NewScalar(r.HMin, r.SMin, r.VMin, 0)
	upper := gocv.NewScalar(r.HMax, r.SMax, r.VMax, 0)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)
	return mask
}

// CountInRanges 统计落在任一区间内的像素数，区间之间不应重叠
func CountInRanges(bgr gocv.Mat, ranges ...HSVRange) int {
	if bgr.Empty() {
		return 0
	}
	total := 0
	for _, r := range ranges {
		mask := InRange(bgr, r)
		total += gocv.CountNonZero(mask)
		mask.Close()
	}
	return total
}

// Binarize 灰度化后反相二值化：亮于 thresh 的像素变黑，其余变白
func Binarize(bgr gocv.Mat, thresh float32) gocv.Mat {
	gray := ToGray(bgr)
	defer gray.Close()

	dst := gocv.NewMat()
	gocv.Threshold(gray, &dst, thresh, 255, gocv.ThresholdBinaryInv)
	return dst
}
