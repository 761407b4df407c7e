// Package processor 串联 OCR、摘要、渲染与处理记录
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/metrics"
	"github.com/fachebot/scan-digest/internal/model"
	"github.com/fachebot/scan-digest/internal/ocr"
	"github.com/fachebot/scan-digest/internal/pipeline"
	"github.com/fachebot/scan-digest/internal/render"
	"golang.org/x/sync/errgroup"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// Composer 生成摘要
type Composer interface {
	Compose(ctx context.Context, text string, mode pipeline.Mode, fraction float64) *pipeline.Digest
}

// Renderer 把摘要绘制为图片文件
type Renderer interface {
	RenderFile(summary string, mode pipeline.Mode, path string) error
}

// Ledger 处理记录
type Ledger interface {
	Create(ctx context.Context, run *model.Run) (*model.Run, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
}

type Options struct {
	Mode      pipeline.Mode
	Fraction  float64
	OutputDir string // 为空时输出到源文件所在目录
	Prefix    string
	Workers   int // ProcessDir 的并发数
}

// Outcome 单个文档的处理结果
type Outcome struct {
	Source    string
	Extracted string
	Digest    *pipeline.Digest
	Output    string // 渲染输出路径，未渲染时为空
}

type Processor struct {
	extractor ocr.Extractor
	composer  Composer
	renderer  Renderer
	ledger    Ledger
	recorder  metrics.Recorder
	options   Options
}

// New 创建处理器，renderer 和 ledger 可以为 nil
func New(extractor ocr.Extractor, composer Composer, renderer Renderer, ledger Ledger, recorder metrics.Recorder, options Options) *Processor {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if options.Prefix == "" {
		options.Prefix = "summarized_"
	}
	return &Processor{
		extractor: extractor,
		composer:  composer,
		renderer:  renderer,
		ledger:    ledger,
		recorder:  recorder,
		options:   options,
	}
}

// WithMode 返回使用指定模式的副本
func (p *Processor) WithMode(mode pipeline.Mode) *Processor {
	c := *p
	c.options.Mode = mode
	return &c
}

// ProcessImage 识别图片、生成摘要并渲染
func (p *Processor) ProcessImage(ctx context.Context, path string) (*Outcome, error) {
	hash, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ocr.ErrImageNotFound, path)
	}

	start := time.Now()
	text, err := p.extractor.Extract(ctx, path)
	p.recorder.RecordDuration("ocr", time.Since(start))
	if err != nil {
		p.fail(ctx, path, hash, err)
		return nil, fmt.Errorf("识别 %s 失败: %w", path, err)
	}
	logger.Debugf("[Processor] 识别完成, source: %s, chars: %d", path, len(text))

	return p.process(ctx, path, hash, text)
}

// ProcessText 对已有文本生成摘要并渲染
func (p *Processor) ProcessText(ctx context.Context, source, text string) (*Outcome, error) {
	return p.process(ctx, source, hashBytes([]byte(text)), text)
}

func (p *Processor) process(ctx context.Context, source, hash, text string) (*Outcome, error) {
	digest := p.composer.Compose(ctx, text, p.options.Mode, p.options.Fraction)
	outcome := &Outcome{Source: source, Extracted: text, Digest: digest}

	if p.renderer != nil && digest.Text != "" {
		output := render.OutputPath(p.options.OutputDir, source, p.options.Prefix)
		start := time.Now()
		if err := p.renderer.RenderFile(digest.Text, p.options.Mode, output); err != nil {
			p.fail(ctx, source, hash, err)
			return nil, fmt.Errorf("渲染 %s 失败: %w", source, err)
		}
		p.recorder.RecordDuration("render", time.Since(start))
		outcome.Output = output
	}

	if p.ledger != nil {
		_, err := p.ledger.Create(ctx, &model.Run{
			Source:       source,
			Hash:         hash,
			Mode:         string(p.options.Mode),
			SentencesIn:  digest.TotalSentences,
			SentencesOut: digest.Kept,
			Fallback:     string(digest.Fallback),
			Output:       outcome.Output,
			Status:       model.StatusCompleted,
		})
		if err != nil {
			logger.Errorf("[Processor] 保存处理记录失败, source: %s, %v", source, err)
		}
	}

	logger.Infof("[Processor] 处理完成, source: %s, mode: %s, sentences: %d -> %d, fallback: %q",
		source, p.options.Mode, digest.TotalSentences, digest.Kept, digest.Fallback)
	return outcome, nil
}

// fail 记录失败的处理
func (p *Processor) fail(ctx context.Context, source, hash string, cause error) {
	logger.Warnf("[Processor] 处理失败, source: %s, %v", source, cause)
	if p.ledger == nil {
		return
	}
	_, err := p.ledger.Create(ctx, &model.Run{
		Source:       source,
		Hash:         hash,
		Mode:         string(p.options.Mode),
		Status:       model.StatusFailed,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		logger.Errorf("[Processor] 保存处理记录失败, source: %s, %v", source, err)
	}
}

// processPath 按扩展名处理图片或文本文件
func (p *Processor) processPath(ctx context.Context, path string) (*Outcome, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return p.ProcessText(ctx, path, string(data))
	}
	return p.ProcessImage(ctx, path)
}

// ProcessImages 并发处理多个文件，单个文件失败不影响其它文件，错误汇总返回
func (p *Processor) ProcessImages(ctx context.Context, paths []string, workers int) ([]*Outcome, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		errs    []error
		results = make([]*Outcome, len(paths))
	)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := p.processPath(ctx, path)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			results[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compact(results), err
	}

	return compact(results), errors.Join(errs...)
}

// ProcessDir 处理目录下尚未成功处理过的图片和文本文件
func (p *Processor) ProcessDir(ctx context.Context, dir string) ([]*Outcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if entry.IsDir() || strings.HasPrefix(name, p.options.Prefix) || (!imageExts[ext] && ext != ".txt") {
			continue
		}

		path := filepath.Join(dir, name)
		if p.ledger != nil {
			hash, err := hashFile(path)
			if err != nil {
				logger.Warnf("[Processor] 读取文件失败, path: %s, %v", path, err)
				continue
			}
			done, err := p.ledger.ExistsByHash(ctx, hash)
			if err != nil {
				return nil, fmt.Errorf("查询处理记录失败: %w", err)
			}
			if done {
				logger.Debugf("[Processor] 跳过已处理文件, path: %s", path)
				continue
			}
		}
		pending = append(pending, path)
	}
	sort.Strings(pending)

	if len(pending) == 0 {
		return nil, nil
	}
	logger.Infof("[Processor] 发现 %d 个待处理文件, dir: %s", len(pending), dir)
	return p.ProcessImages(ctx, pending, p.options.Workers)
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func compact(results []*Outcome) []*Outcome {
	out := make([]*Outcome, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
