// Package mailbox 从 mbox 归档中读取邮件正文
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/fachebot/scan-digest/internal/logger"
)

var errNoPlainText = errors.New("邮件没有 text/plain 正文")

// Message 解码后的单封邮件
type Message struct {
	ID      string
	From    string
	Subject string
	Date    time.Time
	Text    string // 第一个内联 text/plain 部分
}

// ReadFile 打开 mbox 文件并逐封回调
func ReadFile(ctx context.Context, path string, fn func(*Message) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开 mbox 失败: %w", err)
	}
	defer file.Close()

	return Read(ctx, file, fn)
}

// Read 逐封解码邮件，没有纯文本正文的邮件被跳过；fn 返回错误时停止
func Read(ctx context.Context, r io.Reader, fn func(*Message) error) error {
	reader := mbox.NewReader(r)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("读取 mbox 失败: %w", err)
		}

		msg, err := decode(raw)
		if err != nil {
			logger.Warnf("[Mailbox] 跳过第 %d 封邮件, %v", index+1, err)
			continue
		}

		if err := fn(msg); err != nil {
			return err
		}
	}
}

func decode(raw io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(raw)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("解析邮件失败: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	msg.ID, _ = mr.Header.MessageID()
	msg.Subject, _ = mr.Header.Subject()
	msg.Date, _ = mr.Header.Date()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].String()
	} else {
		msg.From = mr.Header.Get("From")
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("读取邮件正文失败: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "" && contentType != "text/plain" {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("读取邮件正文失败: %w", err)
		}
		msg.Text = strings.TrimSpace(strings.ReplaceAll(string(body), "\r\n", "\n"))
		return msg, nil
	}

	return nil, errNoPlainText
}
