//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/otiai10/gosseract/v2"
)

// Gosseract 通过 libtesseract 绑定识别图片，需要 -tags ocr 编译
type Gosseract struct {
	language   string
	preprocess bool
}

func newGosseract(c config.OCR) (Extractor, error) {
	language := c.Language
	if language == "" {
		language = "eng"
	}
	return &Gosseract{language: language, preprocess: c.Preprocess}, nil
}

func (g *Gosseract) Extract(ctx context.Context, imagePath string) (string, error) {
	if err := checkImage(imagePath); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input, cleanup, err := prepareImage(imagePath, g.preprocess)
	if err != nil {
		return "", err
	}
	defer cleanup()

	// gosseract.Client 不能并发使用，每次识别单独创建
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(g.language); err != nil {
		return "", fmt.Errorf("设置识别语言失败: %w", err)
	}
	if err := client.SetImage(input); err != nil {
		return "", fmt.Errorf("加载图片失败: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR 识别失败: %w", err)
	}
	return finish(text)
}
