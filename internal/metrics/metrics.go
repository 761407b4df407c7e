// Package metrics 记录文档处理指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder 处理流程的指标记录接口
type Recorder interface {
	RecordDocument(mode, fallback string)
	RecordSentences(total, kept int)
	RecordDuration(stage string, d time.Duration)
}

// Prometheus 基于 Prometheus 的 Recorder
type Prometheus struct {
	gatherer prometheus.Gatherer

	DocumentsTotal       *prometheus.CounterVec
	SentencesTotal       *prometheus.CounterVec
	StageDurationSeconds *prometheus.HistogramVec
}

// NewPrometheus 在给定 registry 上注册指标
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		gatherer: reg,

		DocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_digest_documents_total",
			Help: "Total number of composed documents by mode and fallback reason",
		}, []string{"mode", "fallback"}),

		SentencesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scan_digest_sentences_total",
			Help: "Total number of sentences seen and kept in summaries",
		}, []string{"kind"}),

		StageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scan_digest_stage_duration_seconds",
			Help:    "Duration of processing stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"stage"}),
	}
}

func (m *Prometheus) RecordDocument(mode, fallback string) {
	if fallback == "" {
		fallback = "none"
	}
	m.DocumentsTotal.WithLabelValues(mode, fallback).Inc()
}

func (m *Prometheus) RecordSentences(total, kept int) {
	m.SentencesTotal.WithLabelValues("total").Add(float64(total))
	m.SentencesTotal.WithLabelValues("kept").Add(float64(kept))
}

func (m *Prometheus) RecordDuration(stage string, d time.Duration) {
	m.StageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler 暴露 /metrics
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Noop 不记录任何指标
type Noop struct{}

func (Noop) RecordDocument(mode, fallback string) {}
func (Noop) RecordSentences(total, kept int) {}
func (Noop) RecordDuration(stage string, d time.Duration) {}
