// Package corpus 把纯文本切分为句子和词，供摘要排序使用
package corpus

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// wordPattern 以字母开头，由字母、撇号和连字符组成；含数字的 token 不算词
var wordPattern = regexp.MustCompile(`^\p{L}[\p{L}\p{M}'-]*$`)

// Sentence 排序单元
type Sentence struct {
	Text    string
	Words   []string // 小写归一化后的词
	Heading bool
}

type Paragraph struct {
	Sentences []Sentence
}

// Document 纯文本文档模型：空行分段，全大写行视为标题
type Document struct {
	Paragraphs []Paragraph
}

// Sentences 返回全部非标题句子，保持原文顺序
func (d *Document) Sentences() []Sentence {
	var out []Sentence
	for _, p := range d.Paragraphs {
		for _, s := range p.Sentences {
			if !s.Heading {
				out = append(out, s)
			}
		}
	}
	return out
}

// Words 返回全部非标题句子的词
func (d *Document) Words() []string {
	var out []string
	for _, s := range d.Sentences() {
		out = append(out, s.Words...)
	}
	return out
}

type punktTokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// Tokenizer 英文分句分词器，不可变，可并发使用
type Tokenizer struct {
	punkt punktTokenizer
}

// NewTokenizer 加载 punkt 英文训练数据
func NewTokenizer() (*Tokenizer, error) {
	punkt, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{punkt: punkt}, nil
}

// Sentences 对整段文本分句，返回去除首尾空白后的非空句子
func (t *Tokenizer) Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, s := range t.punkt.Tokenize(text) {
		sentence := strings.TrimSpace(s.Text)
		if sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}

// Count 返回文本的句子数
func (t *Tokenizer) Count(text string) int {
	return len(t.Sentences(text))
}

// Words 返回句子中的词（小写）
func (t *Tokenizer) Words(sentence string) []string {
	fields := strings.FieldsFunc(sentence, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '\'' || r == '-' || r == '_')
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if wordPattern.MatchString(f) {
			words = append(words, strings.ToLower(f))
		}
	}
	return words
}

// Parse 构建文档模型。
// 每行先去除首尾空白；全大写行为标题句；空行结束当前段落；
// 段落内的普通行以空格连接后再分句。
func (t *Tokenizer) Parse(text string) *Document {
	doc := &Document{}
	var current []any // string 或 Sentence（标题）

	flush := func() {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{Sentences: t.toSentences(current)})
		current = nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case isUpper(line):
			current = append(current, Sentence{Text: line, Words: t.Words(line), Heading: true})
		case line == "" && len(current) > 0:
			flush()
		case line != "":
			current = append(current, line)
		}
	}
	flush()
	return doc
}

func (t *Tokenizer) toSentences(lines []any) []Sentence {
	var out []Sentence
	var buf strings.Builder

	emit := func() {
		for _, s := range t.Sentences(buf.String()) {
			out = append(out, Sentence{Text: s, Words: t.Words(s)})
		}
		buf.Reset()
	}

	for _, line := range lines {
		switch v := line.(type) {
		case Sentence:
			emit()
			out = append(out, v)
		case string:
			buf.WriteString(" ")
			buf.WriteString(v)
		}
	}
	emit()
	return out
}

// isUpper 至少含一个大写字母且没有小写字母
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
