package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Log struct {
	Dir   string `yaml:"Dir"`   // 日志文件目录，为空时只输出到控制台
	Level string `yaml:"Level"` // debug / info / warn / error
}

type Summary struct {
	Mode             string   `yaml:"Mode"`             // "general" / "email"
	SentenceFraction float64  `yaml:"SentenceFraction"` // 保留句子比例，如 0.35
	Engine           string   `yaml:"Engine"`           // "lsa" / "llm"
	Weighting        string   `yaml:"Weighting"`        // "tf" / "tfisf"
	SignatureMarkers []string `yaml:"SignatureMarkers"` // 签名起始标记，按顺序匹配
	StopWords        []string `yaml:"StopWords"`        // LSA 词典排除的停用词
	MaxSentences     int      `yaml:"MaxSentences"`     // 参与排序的最大句子数
	MaxScanLines     int      `yaml:"MaxScanLines"`     // 签名反向扫描的最大行数，0=不限制
}

type OCR struct {
	Engine     string `yaml:"Engine"`     // "tesseract" / "gosseract"
	Binary     string `yaml:"Binary"`     // tesseract 可执行文件路径
	Language   string `yaml:"Language"`   // 如 eng
	Preprocess bool   `yaml:"Preprocess"` // 识别前转为灰度图
	Timeout    int    `yaml:"Timeout"`    // 单张图片识别超时（秒）
}

type Render struct {
	Width       int    `yaml:"Width"`
	Height      int    `yaml:"Height"`
	WrapWidth   int    `yaml:"WrapWidth"` // 每行最大字符数
	Margin      int    `yaml:"Margin"`
	LineSpacing int    `yaml:"LineSpacing"`
	Prefix      string `yaml:"Prefix"` // 输出文件名前缀
}

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type LLM struct {
	BaseURL   string `yaml:"BaseURL"` // 兼容 OpenAI API 的端点
	APIKey    string `yaml:"APIKey"`
	Model     string `yaml:"Model"`     // 如 gpt-4o, deepseek-chat, qwen-plus
	MaxTokens int    `yaml:"MaxTokens"` // 模型上下文窗口大小
}

type Watch struct {
	Cron      string `yaml:"Cron"`      // cron 表达式，如 "*/5 * * * *"
	InputDir  string `yaml:"InputDir"`  // 待处理图片/文本目录
	OutputDir string `yaml:"OutputDir"` // 输出目录，为空时与输入同目录
	Workers   int    `yaml:"Workers"`   // 并发处理数
}

type Storage struct {
	Path string `yaml:"Path"` // sqlite 文件路径，为空时不记录处理历史
}

type Metrics struct {
	Listen string `yaml:"Listen"` // Prometheus 监听地址，如 ":9090"，为空时关闭
}

type Config struct {
	Log        Log        `yaml:"Log"`
	Summary    Summary    `yaml:"Summary"`
	OCR        OCR        `yaml:"OCR"`
	Render     Render     `yaml:"Render"`
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	LLM        LLM        `yaml:"LLM"`
	Watch      Watch      `yaml:"Watch"`
	Storage    Storage    `yaml:"Storage"`
	Metrics    Metrics    `yaml:"Metrics"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Summary: Summary{
			Mode:             "general",
			SentenceFraction: 0.35,
			Engine:           "lsa",
			Weighting:        "tf",
			SignatureMarkers: []string{"thank you", "thanks", "regards", "best", "sincerely"},
			MaxSentences:     2000,
		},
		OCR: OCR{
			Engine:     "tesseract",
			Binary:     "tesseract",
			Language:   "eng",
			Preprocess: true,
			Timeout:    120,
		},
		Render: Render{
			Width:       800,
			Height:      600,
			WrapWidth:   60,
			Margin:      20,
			LineSpacing: 10,
			Prefix:      "summarized_",
		},
		Watch: Watch{
			Cron:    "*/5 * * * *",
			Workers: 2,
		},
		Storage: Storage{Path: "data/runs.db"},
	}
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	// 未出现在文件中的字段保留默认值
	c := Default()
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, err
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("Log.Level 必须是 'debug', 'info', 'warn' 或 'error'")
	}

	// 验证 Summary
	if c.Summary.Mode != "general" && c.Summary.Mode != "email" {
		return fmt.Errorf("Summary.Mode 必须是 'general' 或 'email'")
	}
	if c.Summary.SentenceFraction <= 0 || c.Summary.SentenceFraction > 1 {
		return fmt.Errorf("Summary.SentenceFraction 必须在 (0, 1] 范围内")
	}
	if c.Summary.Engine != "lsa" && c.Summary.Engine != "llm" {
		return fmt.Errorf("Summary.Engine 必须是 'lsa' 或 'llm'")
	}
	if c.Summary.Weighting != "tf" && c.Summary.Weighting != "tfisf" {
		return fmt.Errorf("Summary.Weighting 必须是 'tf' 或 'tfisf'")
	}
	if c.Summary.MaxSentences < 0 {
		return fmt.Errorf("Summary.MaxSentences 必须 >= 0")
	}
	if c.Summary.MaxScanLines < 0 {
		return fmt.Errorf("Summary.MaxScanLines 必须 >= 0")
	}
	for _, marker := range c.Summary.SignatureMarkers {
		if marker == "" {
			return fmt.Errorf("Summary.SignatureMarkers 不能包含空字符串")
		}
	}

	// 验证 OCR
	if c.OCR.Engine != "tesseract" && c.OCR.Engine != "gosseract" {
		return fmt.Errorf("OCR.Engine 必须是 'tesseract' 或 'gosseract'")
	}
	if c.OCR.Engine == "tesseract" && c.OCR.Binary == "" {
		return fmt.Errorf("OCR.Binary 不能为空")
	}
	if c.OCR.Timeout < 0 {
		return fmt.Errorf("OCR.Timeout 必须 >= 0")
	}

	// 验证 Render
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("Render.Width 和 Render.Height 必须大于 0")
	}
	if c.Render.WrapWidth <= 0 {
		return fmt.Errorf("Render.WrapWidth 必须大于 0")
	}
	if c.Render.Margin < 0 || c.Render.LineSpacing < 0 {
		return fmt.Errorf("Render.Margin 和 Render.LineSpacing 必须 >= 0")
	}

	// 验证 LLM（仅在使用 llm 引擎时）
	if c.Summary.Engine == "llm" {
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM.APIKey 不能为空")
		}
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("LLM.BaseURL 不能为空")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("LLM.Model 不能为空")
		}
		if c.LLM.MaxTokens <= 0 {
			return fmt.Errorf("LLM.MaxTokens 必须大于 0")
		}
	}
	if c.Sock5Proxy.Enable && c.Sock5Proxy.Host == "" {
		return fmt.Errorf("Sock5Proxy.Host 不能为空（当 Sock5Proxy.Enable 为 true 时）")
	}

	// 验证 Watch
	if c.Watch.Workers < 0 {
		return fmt.Errorf("Watch.Workers 必须 >= 0")
	}

	return nil
}
