package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/fachebot/scan-digest/internal/segmenter"
	"github.com/fachebot/scan-digest/internal/summarizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const hiBob = "Hi Bob,\n\nThanks for the update. The project is on track. We will ship Friday.\n\nThanks,\nAlice"

const tenSentences = "The river rose overnight. Farmers moved cattle to higher ground. " +
	"Schools closed early on Tuesday. The mayor declared an emergency. " +
	"Volunteers filled sandbags near the bridge. Power failed in the east district. " +
	"Crews restored most lines by evening. Rain is expected to ease tomorrow. " +
	"Officials urged residents to avoid flooded roads. Shelters remain open downtown."

func newTestTokenizer(t *testing.T) *corpus.Tokenizer {
	t.Helper()
	tok, err := corpus.NewTokenizer()
	require.NoError(t, err)
	return tok
}

func newLSAComposer(t *testing.T) *Composer {
	tok := newTestTokenizer(t)
	return NewComposer(tok, summarizer.NewLSA(tok, summarizer.LSAConfig{}), nil, nil)
}

// capturingSummarizer 记录调用参数并返回固定结果
type capturingSummarizer struct {
	text   string
	count  int
	calls  int
	result *summarizer.Result
	err    error
}

func (s *capturingSummarizer) Summarize(ctx context.Context, text string, count int) (*summarizer.Result, error) {
	s.calls++
	s.text, s.count = text, count
	return s.result, s.err
}

// mockRecorder 模拟指标记录
type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordDocument(mode, fallback string) { m.Called(mode, fallback) }
func (m *mockRecorder) RecordSentences(total, kept int) { m.Called(total, kept) }
func (m *mockRecorder) RecordDuration(stage string, d time.Duration) {
	m.Called(stage, d)
}

func TestDesiredCount(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		fraction float64
		want     int
	}{
		{"空文本至少一句", 0, 0.35, 1},
		{"十句取 35%", 10, 0.35, 4},
		{"四句取 35%", 4, 0.35, 1},
		{"2.5 舍入为偶数", 5, 0.5, 2},
		{"3.5 舍入为偶数", 7, 0.5, 4},
		{"全部", 3, 1.0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DesiredCount(tt.total, tt.fraction))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Email ")
	require.NoError(t, err)
	assert.Equal(t, ModeEmail, m)

	m, err = ParseMode("general")
	require.NoError(t, err)
	assert.Equal(t, ModeGeneral, m)

	_, err = ParseMode("poem")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestCompose_EmailScenario(t *testing.T) {
	c := newLSAComposer(t)
	digest := c.Compose(context.Background(), hiBob, ModeEmail, 0.35)

	assert.Equal(t, 4, digest.TotalSentences)
	assert.Equal(t, 1, digest.DesiredCount)
	assert.Equal(t, FallbackNone, digest.Fallback)
	assert.Equal(t, "Hi Bob,\n\nThe project is on track.\n\nThanks,\nAlice", digest.Text)
	assert.Equal(t, segmenter.Email{
		Header:    "Hi Bob,",
		Body:      "Thanks for the update. The project is on track. We will ship Friday.",
		Signature: "Thanks,\nAlice",
	}, digest.Parts)
}

func TestCompose_EmailSummarizesBodyOnly(t *testing.T) {
	s := &capturingSummarizer{result: &summarizer.Result{Sentences: []string{"Short."}}}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	got := c.ComposeText(context.Background(), hiBob, ModeEmail, 0.35)
	assert.Equal(t, "Hi Bob,\n\nShort.\n\nThanks,\nAlice", got)
	assert.Equal(t, "Thanks for the update. The project is on track. We will ship Friday.", s.text)
	assert.Equal(t, 1, s.count)
}

func TestCompose_EmailEmptyBody(t *testing.T) {
	s := &capturingSummarizer{err: errors.New("不应被调用")}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	got := c.ComposeText(context.Background(), "Hello\n\nThank you", ModeEmail, 0.35)
	assert.Equal(t, "Hello\n\nThank you", got)
	assert.Equal(t, 0, s.calls)
}

func TestCompose_GeneralDesiredCount(t *testing.T) {
	s := &capturingSummarizer{result: &summarizer.Result{Sentences: []string{"The mayor declared an emergency."}}}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	digest := c.Compose(context.Background(), tenSentences, ModeGeneral, 0.35)
	assert.Equal(t, 10, digest.TotalSentences)
	assert.Equal(t, 4, s.count)
	assert.Equal(t, tenSentences, s.text)
	assert.Equal(t, "The mayor declared an emergency.", digest.Text)
}

func TestCompose_GeneralWithLSA(t *testing.T) {
	c := newLSAComposer(t)
	got := c.ComposeText(context.Background(), tenSentences, ModeGeneral, 0.35)

	sentences := newTestTokenizer(t).Sentences(got)
	assert.NotEmpty(t, sentences)
	assert.LessOrEqual(t, len(sentences), 4)
	for _, s := range sentences {
		assert.Contains(t, tenSentences, s)
	}
}

func TestCompose_SummarizerFailureReturnsOriginal(t *testing.T) {
	s := &capturingSummarizer{err: summarizer.ErrNoTerms}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	for _, mode := range []Mode{ModeGeneral, ModeEmail} {
		digest := c.Compose(context.Background(), hiBob, mode, 0.35)
		assert.Equal(t, hiBob, digest.Text)
		assert.Equal(t, FallbackSummarizerUnavailable, digest.Fallback)
		assert.False(t, strings.Contains(digest.Text, summarizer.ErrNoTerms.Error()))
	}
}

func TestCompose_EmptyResultReturnsOriginal(t *testing.T) {
	s := &capturingSummarizer{result: &summarizer.Result{}}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	digest := c.Compose(context.Background(), tenSentences, ModeGeneral, 0.35)
	assert.Equal(t, tenSentences, digest.Text)
	assert.Equal(t, FallbackEmptyResult, digest.Fallback)
}

func TestCompose_EmptyInput(t *testing.T) {
	s := &capturingSummarizer{}
	c := NewComposer(newTestTokenizer(t), s, nil, nil)

	for _, mode := range []Mode{ModeGeneral, ModeEmail} {
		assert.Equal(t, "", c.ComposeText(context.Background(), "", mode, 0.35))
	}
	assert.Equal(t, 0, s.calls)
}

func TestCompose_NonEmptyForNonEmptyInput(t *testing.T) {
	c := newLSAComposer(t)
	inputs := []string{"x", "12345", "   ", "!!!", "HEADING", "Hi,\n\n\n", hiBob}
	for _, in := range inputs {
		for _, mode := range []Mode{ModeGeneral, ModeEmail} {
			assert.NotEmpty(t, c.ComposeText(context.Background(), in, mode, 0.35), "%q %s", in, mode)
		}
	}
}

func TestCompose_RecordsMetrics(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("RecordDocument", "general", "").Once()
	rec.On("RecordSentences", 10, 1).Once()
	rec.On("RecordDuration", "compose", mock.Anything).Once()

	s := &capturingSummarizer{result: &summarizer.Result{Sentences: []string{"One."}}}
	c := NewComposer(newTestTokenizer(t), s, nil, rec)
	c.Compose(context.Background(), tenSentences, ModeGeneral, 0.35)
	rec.AssertExpectations(t)
}
