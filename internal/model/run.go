package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run 一次文档处理记录，只保存元数据，不保存摘要文本
type Run struct {
	ID           int64
	Source       string
	Hash         string // 源内容 sha256
	Mode         string
	SentencesIn  int
	SentencesOut int
	Fallback     string
	Output       string // 渲染输出路径
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source        TEXT     NOT NULL,
	hash          TEXT     NOT NULL,
	mode          TEXT     NOT NULL,
	sentences_in  INTEGER  NOT NULL DEFAULT 0,
	sentences_out INTEGER  NOT NULL DEFAULT 0,
	fallback      TEXT     NOT NULL DEFAULT '',
	output        TEXT     NOT NULL DEFAULT '',
	status        TEXT     NOT NULL,
	error_message TEXT     NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(hash);
`

type RunModel struct {
	db *sql.DB
}

func NewRunModel(db *sql.DB) *RunModel {
	return &RunModel{db: db}
}

// Migrate 创建表结构
func (m *RunModel) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("创建 runs 表失败: %w", err)
	}
	return nil
}

// Create 创建处理记录
func (m *RunModel) Create(ctx context.Context, run *Run) (*Run, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusCompleted
	}

	res, err := m.db.ExecContext(ctx,
		`INSERT INTO runs (source, hash, mode, sentences_in, sentences_out, fallback, output, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Source, run.Hash, run.Mode, run.SentencesIn, run.SentencesOut,
		run.Fallback, run.Output, string(run.Status), run.ErrorMessage, run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ExistsByHash 是否已成功处理过相同内容
func (m *RunModel) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM runs WHERE hash = ? AND status = ?)`,
		hash, string(StatusCompleted),
	).Scan(&exists)
	return exists, err
}

// Recent 按创建时间倒序查询最近的记录
func (m *RunModel) Recent(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, source, hash, mode, sentences_in, sentences_out, fallback, output, status, error_message, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run    Run
			status string
		)
		if err := rows.Scan(
			&run.ID, &run.Source, &run.Hash, &run.Mode, &run.SentencesIn, &run.SentencesOut,
			&run.Fallback, &run.Output, &status, &run.ErrorMessage, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Status = Status(status)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
