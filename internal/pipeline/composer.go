// Package pipeline 组合分段与摘要，得到最终摘要文本
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/metrics"
	"github.com/fachebot/scan-digest/internal/segmenter"
	"github.com/fachebot/scan-digest/internal/summarizer"
)

type Mode string

const (
	ModeGeneral Mode = "general"
	ModeEmail   Mode = "email"
)

var ErrInvalidMode = errors.New("未知的摘要模式")

// ParseMode 解析模式名称，忽略大小写
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGeneral:
		return ModeGeneral, nil
	case ModeEmail:
		return ModeEmail, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// FallbackReason 返回原文的原因
type FallbackReason string

const (
	FallbackNone                  FallbackReason = ""
	FallbackSummarizerUnavailable FallbackReason = "summarizer_unavailable"
	FallbackEmptyResult           FallbackReason = "empty_result"
)

// Digest 一次组合的完整结果
type Digest struct {
	Text           string // 最终输出
	Source         string
	Mode           Mode
	Parts          segmenter.Email // 仅 email 模式
	Summary        string          // 摘要部分（email 模式为正文摘要）
	TotalSentences int
	DesiredCount   int
	Kept           int // 摘要保留的句子数，回退时为原文句子数
	Fallback       FallbackReason
}

// Composer 无共享可变状态，可并发处理多个文档
type Composer struct {
	tokenizer  *corpus.Tokenizer
	summarizer summarizer.Summarizer
	segmenter  *segmenter.Segmenter
	recorder   metrics.Recorder
}

func NewComposer(tokenizer *corpus.Tokenizer, s summarizer.Summarizer, seg *segmenter.Segmenter, recorder metrics.Recorder) *Composer {
	if seg == nil {
		seg = segmenter.New(nil)
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Composer{
		tokenizer:  tokenizer,
		summarizer: s,
		segmenter:  seg,
		recorder:   recorder,
	}
}

// DesiredCount 目标句子数：fraction*total 四舍六入五成双，至少为 1
func DesiredCount(total int, fraction float64) int {
	return max(1, int(math.RoundToEven(fraction*float64(total))))
}

// ComposeText 只返回最终文本
func (c *Composer) ComposeText(ctx context.Context, text string, mode Mode, fraction float64) string {
	return c.Compose(ctx, text, mode, fraction).Text
}

// Compose 生成摘要。摘要失败或结果为空时返回原文，从不返回错误
func (c *Composer) Compose(ctx context.Context, text string, mode Mode, fraction float64) *Digest {
	start := time.Now()
	digest := &Digest{Source: text, Mode: mode}
	if text == "" {
		return digest
	}

	digest.TotalSentences = c.tokenizer.Count(text)
	digest.DesiredCount = DesiredCount(digest.TotalSentences, fraction)

	var composed string
	kept := 0
	switch mode {
	case ModeEmail:
		digest.Parts = c.segmenter.Segment(text)
		body := digest.Parts.Body
		if body != "" {
			result, err := c.summarizer.Summarize(ctx, body, digest.DesiredCount)
			if err != nil {
				return c.fallback(digest, FallbackSummarizerUnavailable, err, start)
			}
			body = result.Text()
			kept = len(result.Sentences)
		}
		digest.Summary = body
		composed = segmenter.Email{
			Header:    digest.Parts.Header,
			Body:      body,
			Signature: digest.Parts.Signature,
		}.Join()
	default:
		result, err := c.summarizer.Summarize(ctx, text, digest.DesiredCount)
		if err != nil {
			return c.fallback(digest, FallbackSummarizerUnavailable, err, start)
		}
		digest.Summary = result.Text()
		kept = len(result.Sentences)
		composed = digest.Summary
	}

	if strings.TrimSpace(composed) == "" {
		return c.fallback(digest, FallbackEmptyResult, nil, start)
	}

	digest.Text = composed
	digest.Kept = kept
	c.record(digest, start)
	return digest
}

func (c *Composer) fallback(digest *Digest, reason FallbackReason, err error, start time.Time) *Digest {
	if err != nil {
		logger.Warnf("[Composer] 摘要失败，返回原文, mode: %s, sentences: %d, %v", digest.Mode, digest.TotalSentences, err)
	} else {
		logger.Warnf("[Composer] 摘要结果为空，返回原文, mode: %s, sentences: %d", digest.Mode, digest.TotalSentences)
	}

	digest.Text = digest.Source
	digest.Fallback = reason
	digest.Kept = digest.TotalSentences
	c.record(digest, start)
	return digest
}

func (c *Composer) record(digest *Digest, start time.Time) {
	c.recorder.RecordDocument(string(digest.Mode), string(digest.Fallback))
	c.recorder.RecordSentences(digest.TotalSentences, digest.Kept)
	c.recorder.RecordDuration("compose", time.Since(start))
}
