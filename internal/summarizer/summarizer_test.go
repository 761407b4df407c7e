package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *corpus.Tokenizer {
	t.Helper()
	tok, err := corpus.NewTokenizer()
	require.NoError(t, err)
	return tok
}

const animals = "Cats sleep. Dogs bark loudly at night near the old barn. Birds fly south."

func TestLSA_Errors(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{})
	ctx := context.Background()

	_, err := lsa.Summarize(ctx, animals, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = lsa.Summarize(ctx, "", 1)
	assert.ErrorIs(t, err, ErrNoSentences)

	_, err = lsa.Summarize(ctx, "HEADING ONLY", 1)
	assert.ErrorIs(t, err, ErrNoSentences)

	_, err = lsa.Summarize(ctx, "123, 456.", 1)
	assert.ErrorIs(t, err, ErrNoTerms)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLSA_StopWordsCanEmptyDictionary(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{StopWords: []string{" The ", "a"}})
	_, err := lsa.Summarize(context.Background(), "The the. A a.", 1)
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestLSA_CountCoversAllSentences(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{})
	result, err := lsa.Summarize(context.Background(), "SUMMARY\n"+animals, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats sleep.", "Dogs bark loudly at night near the old barn.", "Birds fly south."}, result.Sentences)
	assert.Equal(t, 3, result.Total)
}

func TestLSA_SelectsRichestSentences(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{})
	ctx := context.Background()

	result, err := lsa.Summarize(ctx, animals, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dogs bark loudly at night near the old barn."}, result.Sentences)

	// 输出保持原文顺序
	result, err = lsa.Summarize(ctx, animals, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dogs bark loudly at night near the old barn.", "Birds fly south."}, result.Sentences)
	assert.Equal(t, "Dogs bark loudly at night near the old barn. Birds fly south.", result.Text())
}

func TestLSA_Deterministic(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{Weighting: WeightingTFISF})
	text := "The engine failed twice. The engine was repaired by the crew. The crew flew home. Weather was calm. The crew thanked the mechanics for the engine work."

	first, err := lsa.Summarize(context.Background(), text, 2)
	require.NoError(t, err)
	require.Len(t, first.Sentences, 2)
	for i := 0; i < 5; i++ {
		again, err := lsa.Summarize(context.Background(), text, 2)
		require.NoError(t, err)
		assert.Equal(t, first.Sentences, again.Sentences)
	}
}

func TestLSA_MaxSentences(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{MaxSentences: 2})
	result, err := lsa.Summarize(context.Background(), animals, 5)
	require.NoError(t, err)
	assert.Len(t, result.Sentences, 2)
	assert.Equal(t, 3, result.Total)
}

func TestLSA_CanceledContext(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lsa.Summarize(ctx, animals, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name  string
		ranks []float64
		count int
		want  []int
	}{
		{"按原文顺序返回", []float64{0.1, 0.9, 0.5}, 2, []int{1, 2}},
		{"同分取靠前的句子", []float64{1, 1, 1, 1}, 2, []int{0, 1}},
		{"数量超过句子数", []float64{0.3, 0.2}, 5, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectBest(tt.ranks, tt.count))
		})
	}
}

func TestApplyTF(t *testing.T) {
	lsa := NewLSA(newTestTokenizer(t), LSAConfig{})
	sentences := []corpus.Sentence{{Words: []string{"a", "a", "b"}}, {Words: nil}}
	matrix := termMatrix(sentences, lsa.dictionary(sentences))
	applyTF(matrix)

	assert.InDelta(t, 1.0, matrix.At(0, 0), 1e-12)
	assert.InDelta(t, 0.7, matrix.At(1, 0), 1e-12)
	// 全零列保持不变
	assert.Equal(t, 0.0, matrix.At(0, 1))
}

// mockRanker 模拟 LLM 排序
type mockRanker struct {
	mock.Mock
}

func (m *mockRanker) RankSentences(ctx context.Context, sentences []string, count int) ([]int, error) {
	args := m.Called(ctx, sentences, count)
	indices, _ := args.Get(0).([]int)
	return indices, args.Error(1)
}

func TestLLM_Summarize(t *testing.T) {
	ranker := new(mockRanker)
	ranker.On("RankSentences", mock.Anything, mock.Anything, 2).Return([]int{2, 2, 9, -1, 0}, nil)

	s := &LLM{parser: newTestTokenizer(t), ranker: ranker}
	result, err := s.Summarize(context.Background(), animals, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats sleep.", "Birds fly south."}, result.Sentences)
	ranker.AssertExpectations(t)
}

func TestLLM_Errors(t *testing.T) {
	apiErr := errors.New("api error")
	ranker := new(mockRanker)
	ranker.On("RankSentences", mock.Anything, mock.Anything, 1).Return(nil, apiErr)
	ranker.On("RankSentences", mock.Anything, mock.Anything, 2).Return([]int{7}, nil)

	s := &LLM{parser: newTestTokenizer(t), ranker: ranker}

	_, err := s.Summarize(context.Background(), animals, 1)
	assert.ErrorIs(t, err, apiErr)

	_, err = s.Summarize(context.Background(), animals, 2)
	assert.ErrorIs(t, err, ErrNoSelection)

	// 句子足够少时不调用模型
	result, err := s.Summarize(context.Background(), animals, 3)
	require.NoError(t, err)
	assert.Len(t, result.Sentences, 3)
	ranker.AssertNumberOfCalls(t, "RankSentences", 2)
}

type stubSummarizer struct {
	result *Result
	err    error
	calls  int
}

func (s *stubSummarizer) Summarize(ctx context.Context, text string, count int) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestFallback(t *testing.T) {
	ok := &Result{Sentences: []string{"ok."}, Total: 1}

	t.Run("主摘要器成功", func(t *testing.T) {
		primary, secondary := &stubSummarizer{result: ok}, &stubSummarizer{}
		got, err := NewFallback(primary, secondary).Summarize(context.Background(), "x", 1)
		require.NoError(t, err)
		assert.Same(t, ok, got)
		assert.Equal(t, 0, secondary.calls)
	})

	t.Run("主摘要器失败时改用备用", func(t *testing.T) {
		primary, secondary := &stubSummarizer{err: errors.New("boom")}, &stubSummarizer{result: ok}
		got, err := NewFallback(primary, secondary).Summarize(context.Background(), "x", 1)
		require.NoError(t, err)
		assert.Same(t, ok, got)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("取消时不再重试", func(t *testing.T) {
		primary, secondary := &stubSummarizer{err: context.Canceled}, &stubSummarizer{result: ok}
		_, err := NewFallback(primary, secondary).Summarize(context.Background(), "x", 1)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, secondary.calls)
	})
}

func TestResult_Text(t *testing.T) {
	var r *Result
	assert.Equal(t, "", r.Text())
	assert.Equal(t, "A. B.", (&Result{Sentences: []string{"A.", "B."}}).Text())
}
