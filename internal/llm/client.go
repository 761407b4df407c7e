package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	config         *config.LLM
	openaiClient   openAIClientInterface
	maxInputTokens int
}

// NewClient 创建 LLM 客户端，transport 为空时使用默认连接
func NewClient(cfg *config.LLM, transport *http.Transport) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if transport != nil {
		openaiConfig.HTTPClient = &http.Client{Transport: transport}
	}

	client := &Client{
		config:         cfg,
		openaiClient:   openai.NewClientWithConfig(openaiConfig),
		maxInputTokens: cfg.MaxTokens - 2000, // 预留 2000 tokens 给 system prompt 和输出
	}

	return client
}

// estimateTokens 估算文本的 token 数量
func estimateTokens(text string) int {
	// 中文约 1.5 token/字，英文约 1.3 token/词
	chineseChars := 0
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			chineseChars++
		}
	}
	englishWords := len(strings.Fields(text))

	tokens := int(float64(chineseChars)*1.5 + float64(englishWords)*1.3)
	if tokens < len(text)/4 {
		// 估算值太小时使用字符数的 1/4 作为下限
		tokens = len(text) / 4
	}

	return tokens
}

// rankingJSON 用于解析 LLM 返回的 JSON
type rankingJSON struct {
	Indices []int `json:"indices"`
}

// sentencesToPromptText 将句子转为编号列表，每行 "[编号] 句子"，超出 token 预算的句子被截断
func sentencesToPromptText(sentences []string, maxTokens int) (string, int) {
	lines := make([]string, 0, len(sentences))
	used := 0
	for i, s := range sentences {
		line := fmt.Sprintf("[%d] %s", i, s)
		tokens := estimateTokens(line)
		if maxTokens > 0 && used+tokens > maxTokens && len(lines) > 0 {
			break
		}
		lines = append(lines, line)
		used += tokens
	}
	return strings.Join(lines, "\n"), len(lines)
}

// stripCodeFence 去除模型输出外层的 markdown 代码块
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// RankSentences 请求模型选出最重要的 count 个句子，返回其编号（按重要性排列，可能越界或重复，由调用方校验）
func (c *Client) RankSentences(ctx context.Context, sentences []string, count int) ([]int, error) {
	if len(sentences) == 0 || count < 1 {
		return nil, nil
	}

	promptText, included := sentencesToPromptText(sentences, c.maxInputTokens)
	if included < len(sentences) {
		logger.Infof("[LLM] 文本过长，仅提交前 %d/%d 句进行排序", included, len(sentences))
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	systemPrompt := `你是一个抽取式摘要助手。用户会给出编号的句子列表，请选出最能概括全文的句子。
输出严格的 JSON 格式：{"indices": [编号, ...]}，按重要性从高到低排列。

只输出 JSON，不要改写句子，不要其他内容。`

	userPrompt := fmt.Sprintf("句子列表：\n%s\n\n请选出 %d 个句子，输出 JSON。", promptText, min(count, included))

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0,
		MaxTokens:   1000,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM API 返回空结果")
	}

	var parsed rankingJSON
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("解析 LLM 返回的 JSON 失败: %w", err)
	}

	logger.Debugf("[LLM] 排序完成, sentences: %d, indices: %v", included, parsed.Indices)
	return parsed.Indices, nil
}
