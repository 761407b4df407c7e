// Package segmenter 将 OCR 提取的邮件文本拆分为抬头、正文和签名三部分
package segmenter

import (
	"strings"
)

// DefaultMarkers 签名起始标记，按顺序匹配
var DefaultMarkers = []string{"thank you", "thanks", "regards", "best", "sincerely"}

// Email 邮件文本的三个区域，均已去除首尾空白
type Email struct {
	Header    string
	Body      string
	Signature string
}

type Segmenter struct {
	markers      []string
	maxScanLines int
}

// New 创建分段器，markers 为空时使用 DefaultMarkers
func New(markers []string) *Segmenter {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	normalized := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			normalized = append(normalized, m)
		}
	}
	return &Segmenter{markers: normalized}
}

// WithMaxScanLines 限制签名反向扫描的行数，0 表示不限制
func (s *Segmenter) WithMaxScanLines(n int) *Segmenter {
	s.maxScanLines = n
	return s
}

// Markers 返回当前使用的签名标记
func (s *Segmenter) Markers() []string {
	return append([]string(nil), s.markers...)
}

var defaultSegmenter = New(nil)

// Segment 使用默认签名标记拆分文本
func Segment(text string) Email {
	return defaultSegmenter.Segment(text)
}

// IsSignatureMarker 判断一行是否以任一签名标记开头（忽略大小写和首尾空白）
func (s *Segmenter) IsSignatureMarker(line string) bool {
	return s.matchMarker(strings.ToLower(strings.TrimSpace(line))) != ""
}

func (s *Segmenter) matchMarker(normalized string) string {
	for _, marker := range s.markers {
		if strings.HasPrefix(normalized, marker) {
			return marker
		}
	}
	return ""
}

// Segment 拆分文本：
// 第一个空行之前为抬头（空行本身丢弃）；其余部分从最后一行向前扫描，
// 第一个以签名标记开头的行（最靠近结尾者）及其之后为签名，之前为正文。
func (s *Segmenter) Segment(text string) Email {
	var header, rest []string
	blankFound := false
	for _, line := range splitLines(text) {
		if blankFound {
			rest = append(rest, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			blankFound = true
			continue
		}
		header = append(header, line)
	}

	mainText := strings.TrimSpace(strings.Join(rest, "\n"))
	mainLines := splitLines(mainText)

	stop := 0
	if s.maxScanLines > 0 && len(mainLines) > s.maxScanLines {
		stop = len(mainLines) - s.maxScanLines
	}

	signatureIndex := -1
	for i := len(mainLines) - 1; i >= stop; i-- {
		if s.IsSignatureMarker(mainLines[i]) {
			signatureIndex = i
			break
		}
	}

	email := Email{Header: strings.TrimSpace(strings.Join(header, "\n"))}
	if signatureIndex >= 0 {
		email.Body = strings.TrimSpace(strings.Join(mainLines[:signatureIndex], "\n"))
		email.Signature = strings.TrimSpace(strings.Join(mainLines[signatureIndex:], "\n"))
	} else {
		email.Body = mainText
	}
	return email
}

// Parts 按抬头、正文、签名顺序返回非空部分
func (e Email) Parts() []string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Header, e.Body, e.Signature} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Join 用空行连接非空部分
func (e Email) Join() string {
	return strings.Join(e.Parts(), "\n\n")
}

// splitLines 按 \n、\r\n、\r 拆行，结尾换行不产生额外空行
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
