package store

import (
	"context"
	"encoding/json"
	"time"

	"histvault/internal/market"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordRun 落一条回补审计记录：参数与按 symbol 的结果快照。
func (s *Store) RecordRun(ctx context.Context, symbols []string, years, concurrency int, results map[string]*market.DownloadResult) error {
	now := time.Now().UTC()
	run := RunModel{
		ID:          uuid.NewString(),
		StartedAt:   now,
		FinishedAt:  now,
		Years:       years,
		Concurrency: concurrency,
	}
	if raw, err := json.Marshal(symbols); err == nil {
		run.Symbols = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(results); err == nil {
		run.Results = datatypes.JSON(raw)
	}
	for _, r := range results {
		run.TotalInserted += r.Inserted
	}
	return s.db.WithContext(ctx).Create(&run).Error
}

// RecentRuns 返回最近的回补记录，API 查询使用。
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunModel, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunModel
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
