package summarizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/fachebot/scan-digest/internal/llm"
)

// sentenceRanker 定义句子排序接口，便于测试注入 mock
type sentenceRanker interface {
	RankSentences(ctx context.Context, sentences []string, count int) ([]int, error)
}

// LLM 由大模型挑选句子的抽取式摘要器，输出仍是原文句子
type LLM struct {
	parser documentParser
	ranker sentenceRanker
}

func NewLLM(parser documentParser, client *llm.Client) *LLM {
	return &LLM{parser: parser, ranker: client}
}

func (s *LLM) Summarize(ctx context.Context, text string, count int) (*Result, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w, 实际为 %d", ErrInvalidCount, count)
	}

	sentences := s.parser.Parse(text).Sentences()
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	if count >= len(sentences) {
		return &Result{Sentences: sentenceTexts(sentences), Total: len(sentences)}, nil
	}

	ranked, err := s.ranker.RankSentences(ctx, sentenceTexts(sentences), count)
	if err != nil {
		return nil, fmt.Errorf("LLM 排序失败: %w", err)
	}

	indices := validIndices(ranked, len(sentences), count)
	if len(indices) == 0 {
		return nil, ErrNoSelection
	}

	return &Result{Sentences: pick(sentences, indices), Total: len(sentences)}, nil
}

// validIndices 丢弃越界和重复的编号，最多保留 count 个，按原文顺序返回
func validIndices(ranked []int, n, count int) []int {
	seen := make(map[int]bool, len(ranked))
	out := make([]int, 0, count)
	for _, idx := range ranked {
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
		if len(out) == count {
			break
		}
	}
	sort.Ints(out)
	return out
}
