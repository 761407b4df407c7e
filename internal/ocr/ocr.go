// Package ocr 从图片中提取文本
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fachebot/scan-digest/internal/config"
)

var (
	ErrImageNotFound  = errors.New("图片不存在")
	ErrNoText         = errors.New("图片中未识别到文本")
	ErrEngineNotBuilt = errors.New("当前二进制未编译该 OCR 引擎")
	ErrUnknownEngine  = errors.New("未知的 OCR 引擎")
)

// Extractor 从图片路径提取原始文本
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

// NewExtractor 按配置选择 OCR 引擎
func NewExtractor(c config.OCR) (Extractor, error) {
	switch c.Engine {
	case "", "tesseract":
		return NewTesseract(c), nil
	case "gosseract":
		return newGosseract(c)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, c.Engine)
}

// checkImage 确认图片存在且不是目录
func checkImage(imagePath string) error {
	info, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrImageNotFound, imagePath)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s 是目录", ErrImageNotFound, imagePath)
	}
	return nil
}

// prepareImage 按需生成灰度临时图，返回实际识别的路径和清理函数
func prepareImage(imagePath string, preprocess bool) (string, func(), error) {
	if !preprocess {
		return imagePath, func() {}, nil
	}

	tmp, err := os.CreateTemp("", "scan-digest-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmp.Close()

	cleanup := func() { os.Remove(tmp.Name()) }
	if err := Preprocess(imagePath, tmp.Name()); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

func finish(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func timeout(c config.OCR) time.Duration {
	if c.Timeout <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Timeout) * time.Second
}
