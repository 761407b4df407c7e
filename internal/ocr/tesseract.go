package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/logger"
)

// Tesseract 调用 tesseract 命令行识别图片
type Tesseract struct {
	binary     string
	language   string
	preprocess bool
	timeout    time.Duration
}

func NewTesseract(c config.OCR) *Tesseract {
	binary := c.Binary
	if binary == "" {
		binary = "tesseract"
	}
	language := c.Language
	if language == "" {
		language = "eng"
	}
	return &Tesseract{
		binary:     binary,
		language:   language,
		preprocess: c.Preprocess,
		timeout:    timeout(c),
	}
}

func (t *Tesseract) Extract(ctx context.Context, imagePath string) (string, error) {
	if err := checkImage(imagePath); err != nil {
		return "", err
	}

	input, cleanup, err := prepareImage(imagePath, t.preprocess)
	if err != nil {
		return "", err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, input, "stdout", "-l", t.language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("tesseract 识别超时或被取消: %w", ctx.Err())
		}
		return "", fmt.Errorf("tesseract 执行失败: %w, %s", err, strings.TrimSpace(stderr.String()))
	}
	logger.Debugf("[OCR] 识别完成, image: %s, elapsed: %s", imagePath, time.Since(start))

	return finish(stdout.String())
}
