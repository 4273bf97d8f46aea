package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/internal/logger"
	"github.com/zoeyai/winmacro/pkg/auto/screen"
	"github.com/zoeyai/winmacro/pkg/vision"
	"github.com/zoeyai/winmacro/pkg/vision/ocr"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "截取主屏并保存",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(true); err != nil {
			return err
		}
		img, err := screen.CaptureScreen()
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		path, err := screen.NewSaver(dir, screen.Default()).Save("screen_", img)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "识别图片中的文字",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRecognizer(cmd); err != nil {
			return err
		}
		defer ocr.ClearCache()

		text, err := ocr.GetAllText(args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var probeImageCmd = &cobra.Command{
	Use:   "probe-image <image>",
	Short: "对截图做失败提示检测",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := ocr.LoadImage(args[0])
		if err != nil {
			return err
		}

		var recognizer ocr.Recognizer
		if err := initRecognizer(cmd); err != nil {
			logger.Warn("%v", err)
		} else {
			defer ocr.ClearCache()
			tr, _ := ocr.GetGlobalRecognizer()
			recognizer = tr
		}

		phrase, _ := cmd.Flags().GetString("phrase")
		prober := vision.NewProber(nil, nil, recognizer, vision.WithPhrase(phrase))
		inspect := prober.Inspect
		if whole, _ := cmd.Flags().GetBool("window"); whole {
			inspect = prober.InspectWindow
		}
		res, err := inspect(img)
		if res != nil {
			fmt.Printf("红色像素: %d\n匹配: %v\n", res.RedPixels, res.Matched)
			if res.Text != "" {
				fmt.Printf("文字: %s\n", res.Text)
			}
		}
		return err
	},
}

// initRecognizer 按 --models 初始化全局识别器
func initRecognizer(cmd *cobra.Command) error {
	cfg := ocr.DefaultConfig()
	if dir, _ := cmd.Flags().GetString("models"); dir != "" {
		cfg = ocr.ConfigFromDir(dir)
	}
	return ocr.InitGlobalRecognizer(cfg)
}

func init() {
	screenshotCmd.Flags().String("dir", screen.DefaultDir, "保存目录")
	for _, c := range []*cobra.Command{ocrCmd, probeImageCmd} {
		c.Flags().String("models", "", "OCR 模型目录 (包含 lib/ 与 paddle_weights/)")
	}
	probeImageCmd.Flags().String("phrase", vision.DefaultOptions.Phrase, "提示文字")
	probeImageCmd.Flags().Bool("window", false, "输入为整窗截图，按提示区域裁剪")
	rootCmd.AddCommand(screenshotCmd, ocrCmd, probeImageCmd)
}
