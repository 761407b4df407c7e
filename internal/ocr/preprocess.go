package ocr

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Preprocess 将图片转为灰度后保存，输出格式由 dst 扩展名决定
func Preprocess(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("打开图片失败: %w", err)
	}

	if err := imaging.Save(imaging.Grayscale(img), dst); err != nil {
		return fmt.Errorf("保存灰度图失败: %w", err)
	}
	return nil
}
