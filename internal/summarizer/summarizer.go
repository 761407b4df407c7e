package summarizer

import (
	"context"
	"errors"
	"sort"

	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/fachebot/scan-digest/internal/logger"
)

// Summarizer 将文本压缩为 count 句最重要的原文句子
type Summarizer interface {
	Summarize(ctx context.Context, text string, count int) (*Result, error)
}

// documentParser 构建文档模型（便于测试注入 mock）
type documentParser interface {
	Parse(text string) *corpus.Document
}

// Fallback 主摘要器失败时改用备用摘要器
type Fallback struct {
	primary   Summarizer
	secondary Summarizer
}

func NewFallback(primary, secondary Summarizer) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Summarize(ctx context.Context, text string, count int) (*Result, error) {
	result, err := f.primary.Summarize(ctx, text, count)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	logger.Warnf("[Summarizer] 主摘要器失败，改用备用摘要器: %v", err)
	return f.secondary.Summarize(ctx, text, count)
}

// sentenceTexts 提取句子文本
func sentenceTexts(sentences []corpus.Sentence) []string {
	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	return texts
}

// pick 按下标取句子，下标需已按原文顺序排列
func pick(sentences []corpus.Sentence, indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = sentences[idx].Text
	}
	return out
}

// selectBest 按分数降序（同分保持原文顺序）取前 count 个，再按原文顺序返回下标
func selectBest(ranks []float64, count int) []int {
	order := make([]int, len(ranks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})
	if count < len(order) {
		order = order[:count]
	}
	sort.Ints(order)
	return order
}
