package svc

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/corpus"
	"github.com/fachebot/scan-digest/internal/llm"
	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/metrics"
	"github.com/fachebot/scan-digest/internal/model"
	"github.com/fachebot/scan-digest/internal/ocr"
	"github.com/fachebot/scan-digest/internal/pipeline"
	"github.com/fachebot/scan-digest/internal/processor"
	"github.com/fachebot/scan-digest/internal/render"
	"github.com/fachebot/scan-digest/internal/segmenter"
	"github.com/fachebot/scan-digest/internal/summarizer"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	DB             *sql.DB
	TransportProxy *http.Transport
	Tokenizer      *corpus.Tokenizer
	Segmenter      *segmenter.Segmenter
	Summarizer     summarizer.Summarizer
	Composer       *pipeline.Composer
	Extractor      ocr.Extractor
	Renderer       *render.Renderer
	RunModel       *model.RunModel
	LLMClient      *llm.Client
	Metrics        *metrics.Prometheus
	Processor      *processor.Processor
}

func NewServiceContext(c *config.Config) (*ServiceContext, error) {
	svcCtx := &ServiceContext{Config: c}

	tokenizer, err := corpus.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("加载分句模型失败: %w", err)
	}
	svcCtx.Tokenizer = tokenizer
	svcCtx.Segmenter = segmenter.New(c.Summary.SignatureMarkers).WithMaxScanLines(c.Summary.MaxScanLines)
	svcCtx.Metrics = metrics.NewPrometheus(prometheus.NewRegistry())

	// 创建SOCKS5代理
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("创建SOCKS5代理失败: %w", err)
		}

		svcCtx.TransportProxy = &http.Transport{
			Dial:            dialer.Dial,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	// 摘要器：LSA，或 LLM 失败时回退到 LSA
	lsa := summarizer.NewLSA(tokenizer, summarizer.LSAConfig{
		Weighting:    summarizer.Weighting(c.Summary.Weighting),
		StopWords:    c.Summary.StopWords,
		MaxSentences: c.Summary.MaxSentences,
	})
	svcCtx.Summarizer = lsa
	if c.Summary.Engine == "llm" {
		svcCtx.LLMClient = llm.NewClient(&c.LLM, svcCtx.TransportProxy)
		svcCtx.Summarizer = summarizer.NewFallback(summarizer.NewLLM(tokenizer, svcCtx.LLMClient), lsa)
	}
	svcCtx.Composer = pipeline.NewComposer(tokenizer, svcCtx.Summarizer, svcCtx.Segmenter, svcCtx.Metrics)

	svcCtx.Extractor, err = ocr.NewExtractor(c.OCR)
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}
	svcCtx.Renderer = render.New(c.Render, svcCtx.Segmenter)

	// 处理记录，未配置路径时不记录
	var ledger processor.Ledger
	if c.Storage.Path != "" {
		db, err := model.Open(c.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("打开数据库失败: %w", err)
		}
		svcCtx.DB = db
		svcCtx.RunModel = model.NewRunModel(db)
		if err := svcCtx.RunModel.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
		ledger = svcCtx.RunModel
	}

	mode, err := pipeline.ParseMode(c.Summary.Mode)
	if err != nil {
		svcCtx.Close()
		return nil, err
	}
	svcCtx.Processor = processor.New(svcCtx.Extractor, svcCtx.Composer, svcCtx.Renderer, ledger, svcCtx.Metrics, processor.Options{
		Mode:      mode,
		Fraction:  c.Summary.SentenceFraction,
		OutputDir: c.Watch.OutputDir,
		Prefix:    c.Render.Prefix,
		Workers:   c.Watch.Workers,
	})

	return svcCtx, nil
}

func (svcCtx *ServiceContext) Close() {
	if svcCtx.DB == nil {
		return
	}
	if err := svcCtx.DB.Close(); err != nil {
		logger.Errorf("关闭数据库失败, %v", err)
	}
}
