package summarizer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/fachebot/scan-digest/internal/logger"
	"gonum.org/v1/gonum/mat"
)

// Weighting 词-句矩阵的加权方式
type Weighting string

const (
	WeightingTF    Weighting = "tf"    // 按列最大词频平滑归一化
	WeightingTFISF Weighting = "tfisf" // 词频乘以逆句频
)

const (
	minDimensions  = 3
	reductionRatio = 1.0
	tfSmoothing    = 0.4
)

// LSAConfig LSA 摘要器配置
type LSAConfig struct {
	Weighting    Weighting
	StopWords    []string
	MaxSentences int // 参与排序的最大句子数，0 表示不限制
}

// LSA 基于潜在语义分析的抽取式摘要器
type LSA struct {
	parser       documentParser
	weighting    Weighting
	stopWords    map[string]struct{}
	maxSentences int
}

func NewLSA(parser documentParser, cfg LSAConfig) *LSA {
	stopWords := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stopWords[w] = struct{}{}
		}
	}

	weighting := cfg.Weighting
	if weighting == "" {
		weighting = WeightingTF
	}

	return &LSA{
		parser:       parser,
		weighting:    weighting,
		stopWords:    stopWords,
		maxSentences: cfg.MaxSentences,
	}
}

// Summarize 选出 count 个排名最高的句子，按原文顺序返回
func (l *LSA) Summarize(ctx context.Context, text string, count int) (*Result, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w, 实际为 %d", ErrInvalidCount, count)
	}

	sentences := l.parser.Parse(text).Sentences()
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	total := len(sentences)
	if l.maxSentences > 0 && total > l.maxSentences {
		logger.Warnf("[LSA] 句子数超出上限, 仅对前 %d 句排序, total: %d", l.maxSentences, total)
		sentences = sentences[:l.maxSentences]
	}

	dictionary := l.dictionary(sentences)
	if len(dictionary) == 0 {
		return nil, ErrNoTerms
	}

	if count >= len(sentences) {
		return &Result{Sentences: sentenceTexts(sentences), Total: total}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranks, err := l.rank(sentences, dictionary)
	if err != nil {
		return nil, err
	}

	return &Result{
		Sentences: pick(sentences, selectBest(ranks, count)),
		Total:     total,
	}, nil
}

// dictionary 按首次出现顺序为每个非停用词分配行号
func (l *LSA) dictionary(sentences []corpus.Sentence) map[string]int {
	dict := make(map[string]int)
	for _, s := range sentences {
		for _, w := range s.Words {
			if _, stop := l.stopWords[w]; stop {
				continue
			}
			if _, ok := dict[w]; !ok {
				dict[w] = len(dict)
			}
		}
	}
	return dict
}

// rank 计算每个句子的 LSA 得分
func (l *LSA) rank(sentences []corpus.Sentence, dictionary map[string]int) ([]float64, error) {
	matrix := termMatrix(sentences, dictionary)
	switch l.weighting {
	case WeightingTFISF:
		applyTFISF(matrix)
	default:
		applyTF(matrix)
	}

	var svd mat.SVD
	if ok := svd.Factorize(matrix, mat.SVDThin); !ok {
		return nil, ErrDecomposition
	}

	sigma := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	dimensions := max(minDimensions, int(float64(len(sigma))*reductionRatio))
	dimensions = min(dimensions, len(sigma))

	ranks := make([]float64, len(sentences))
	for j := range sentences {
		var sum float64
		for i := 0; i < dimensions; i++ {
			weight := v.At(j, i)
			sum += sigma[i] * sigma[i] * weight * weight
		}
		ranks[j] = math.Sqrt(sum)
	}
	return ranks, nil
}

// termMatrix 行为词，列为句子，值为词在句中的出现次数
func termMatrix(sentences []corpus.Sentence, dictionary map[string]int) *mat.Dense {
	matrix := mat.NewDense(len(dictionary), len(sentences), nil)
	for j, s := range sentences {
		for _, w := range s.Words {
			if i, ok := dictionary[w]; ok {
				matrix.Set(i, j, matrix.At(i, j)+1)
			}
		}
	}
	return matrix
}

// applyTF 每列按最大词频归一化：0.4 + 0.6*f/max；全零列保持不变
func applyTF(matrix *mat.Dense) {
	rows, cols := matrix.Dims()
	for j := 0; j < cols; j++ {
		var maxFreq float64
		for i := 0; i < rows; i++ {
			maxFreq = math.Max(maxFreq, matrix.At(i, j))
		}
		if maxFreq == 0 {
			continue
		}
		for i := 0; i < rows; i++ {
			matrix.Set(i, j, tfSmoothing+(1-tfSmoothing)*matrix.At(i, j)/maxFreq)
		}
	}
}

// applyTFISF 词频乘以 ln(N/n)，n 为包含该词的句子数
func applyTFISF(matrix *mat.Dense) {
	rows, cols := matrix.Dims()
	for i := 0; i < rows; i++ {
		var n int
		for j := 0; j < cols; j++ {
			if matrix.At(i, j) > 0 {
				n++
			}
		}
		if n == 0 {
			continue
		}
		isf := math.Log(float64(cols) / float64(n))
		for j := 0; j < cols; j++ {
			matrix.Set(i, j, matrix.At(i, j)*isf)
		}
	}
}
