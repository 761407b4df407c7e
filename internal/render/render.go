// Package render 把摘要文本绘制为 PNG 图片
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/pipeline"
	"github.com/fachebot/scan-digest/internal/segmenter"
	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var ErrEmptyText = errors.New("没有可绘制的文本")

var (
	textColor      = color.NRGBA{A: 255}
	ruleColor      = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	signatureColor = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
)

const (
	ruleThickness = 2
	sectionGap    = 20
)

// line 一行待绘制的文本或分隔线
type line struct {
	text  string
	y     int
	bold  bool
	rule  bool
	color color.NRGBA
}

type Renderer struct {
	config    config.Render
	segmenter *segmenter.Segmenter
	face      font.Face
}

func New(c config.Render, seg *segmenter.Segmenter) *Renderer {
	if seg == nil {
		seg = segmenter.New(nil)
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = 800, 600
	}
	if c.WrapWidth <= 0 {
		c.WrapWidth = 60
	}
	return &Renderer{config: c, segmenter: seg, face: basicfont.Face7x13}
}

// Render 绘制摘要。email 模式重新分段，抬头加粗，签名为灰色，各部分之间画分隔线
func (r *Renderer) Render(summary string, mode pipeline.Mode) (*image.NRGBA, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptyText
	}

	lines, bottom := r.layout(summary, mode)
	width := r.config.Width
	height := max(r.config.Height, bottom+r.config.Margin)

	img := imaging.New(width, height, color.White)
	for _, l := range lines {
		if l.rule {
			rect := image.Rect(r.config.Margin, l.y, width-r.config.Margin, l.y+ruleThickness)
			draw.Draw(img, rect, image.NewUniform(l.color), image.Point{}, draw.Src)
			continue
		}
		r.drawText(img, l.text, r.config.Margin, l.y, l.color)
		if l.bold {
			r.drawText(img, l.text, r.config.Margin+1, l.y, l.color)
		}
	}
	return img, nil
}

// RenderFile 绘制并保存，格式由文件扩展名决定
func (r *Renderer) RenderFile(summary string, mode pipeline.Mode, path string) error {
	img, err := r.Render(summary, mode)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("保存图片失败: %w", err)
	}
	return nil
}

func (r *Renderer) layout(summary string, mode pipeline.Mode) ([]line, int) {
	y := r.config.Margin
	var lines []line

	block := func(text string, bold bool, c color.NRGBA) {
		for _, s := range r.wrap(text) {
			lines = append(lines, line{text: s, y: y, bold: bold, color: c})
			y += r.lineHeight() + r.config.LineSpacing
		}
	}
	rule := func() {
		lines = append(lines, line{y: y, rule: true, color: ruleColor})
		y += sectionGap
	}

	if mode != pipeline.ModeEmail {
		block(summary, false, textColor)
		return lines, y
	}

	parts := r.segmenter.Segment(summary)
	if parts.Header != "" {
		block(parts.Header, true, textColor)
		y += r.config.LineSpacing
		rule()
	}
	if parts.Body != "" {
		block(parts.Body, false, textColor)
		y += sectionGap
	}
	if parts.Signature != "" {
		rule()
		block(parts.Signature, false, signatureColor)
	}
	return lines, y
}

// wrap 合并空白后按列宽折行
func (r *Renderer) wrap(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return strings.Split(wordwrap.WrapString(text, uint(r.config.WrapWidth)), "\n")
}

func (r *Renderer) lineHeight() int {
	return r.face.Metrics().Height.Ceil()
}

func (r *Renderer) drawText(img draw.Image, text string, x, y int, c color.NRGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y+r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// OutputPath 生成输出文件路径：<dir>/<prefix><源文件名>，非图片扩展名改为 .png
func OutputPath(dir, source, prefix string) string {
	if prefix == "" {
		prefix = "summarized_"
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}

	base := filepath.Base(source)
	ext := filepath.Ext(base)
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
	default:
		base = strings.TrimSuffix(base, ext) + ".png"
	}
	return filepath.Join(dir, prefix+base)
}
