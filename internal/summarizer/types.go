package summarizer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable 摘要无法生成，调用方应回退到原文
	ErrUnavailable = errors.New("摘要不可用")

	ErrInvalidCount  = fmt.Errorf("%w: 句子数必须 >= 1", ErrUnavailable)
	ErrNoSentences   = fmt.Errorf("%w: 文本中没有可用句子", ErrUnavailable)
	ErrNoTerms       = fmt.Errorf("%w: 文本中没有可用词", ErrUnavailable)
	ErrNoSelection   = fmt.Errorf("%w: 未选出任何句子", ErrUnavailable)
	ErrDecomposition = fmt.Errorf("%w: 矩阵分解失败", ErrUnavailable)
)

// Result 摘要结果，Sentences 均为原文句子
type Result struct {
	Sentences []string
	Total     int // 参与排序前的句子总数
}

// Text 用单个空格连接所选句子
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Sentences, " ")
}
