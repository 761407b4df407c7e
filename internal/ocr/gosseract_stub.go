//go:build !ocr

package ocr

import (
	"github.com/fachebot/scan-digest/internal/config"
)

func newGosseract(c config.OCR) (Extractor, error) {
	return nil, ErrEngineNotBuilt
}
