// Package cv 提供截图的颜色掩码与二值化处理
//
// 基本用法:
//
//	mat, err := cv.ImageToMat(img)
//	if err != nil {
//	    return err
//	}
//	defer mat.Close()
//
//	// 统计红色像素
//	n := cv.CountInRanges(mat, cv.RedRanges...)
//
//	// 灰度化后反相二值化，便于识别浅底红字
//	bin := cv.Binarize(mat, 150)
//	defer bin.Close()
package cv
