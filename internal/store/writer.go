package store

import (
	"context"
	"fmt"

	"histvault/internal/logger"
	"histvault/internal/market"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 中文说明：
// 批量落库走两段式策略：先尝试快路径（gorm 批量插入，单事务双表），
// 快路径句柄缺失或任何失败则退回通用参数化批量执行。两条路径都在单个
// 事务里写两张表，保证一个批次要么同时进入两种形态，要么都不进。

// FlushBatch 写入一个批次并返回按 symbol 归属的插入行数。
// 返回 error 仅表示整个批次被丢弃，调用方记零后继续即可。
func (s *Store) FlushBatch(ctx context.Context, points []market.HistoricalPoint, timeframe string) (map[string]int64, error) {
	if len(points) == 0 {
		return map[string]int64{}, nil
	}
	bars, rows := toModels(points, timeframe)
	if handle := s.BulkHandle(); handle != nil {
		counts, err := flushFast(ctx, handle, bars, rows, points)
		if err == nil {
			return counts, nil
		}
		logger.Warnf("[store] 快路径写入失败，退回通用批量路径: %v", err)
	}
	return s.flushFallback(ctx, bars, rows)
}

// flushFast 单事务批量插入两张表，按整批成功计数。
func flushFast(ctx context.Context, handle *gorm.DB, bars []BarModel, rows []MarketDataModel, points []market.HistoricalPoint) (map[string]int64, error) {
	tx := handle.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	onConflict := clause.OnConflict{DoNothing: true}
	if err := tx.Clauses(onConflict).Create(&bars).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Clauses(onConflict).Create(&rows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, 4)
	for _, pt := range points {
		counts[pt.Symbol]++
	}
	return counts, nil
}

// flushFallback 用预编译语句逐条写入，累加 market_data 的 rows-affected；
// 每行包在一个保存点里，任一条语句失败就回滚该行的两次写入，
// 保证两种形态同进同退，且不中断批次其余条目。
func (s *Store) flushFallback(ctx context.Context, bars []BarModel, rows []MarketDataModel) (map[string]int64, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("fallback: obtaining sql.DB failed: %w", err)
	}
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fallback: begin failed: %w", err)
	}
	defer tx.Rollback()

	barStmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO bars (symbol, timestamp, timeframe, open, high, low, close, volume, complete) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer barStmt.Close()
	mdStmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO market_data (symbol, name, timestamp, timeframe, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer mdStmt.Close()

	counts := make(map[string]int64, 4)
	for i := range rows {
		bar, row := bars[i], rows[i]
		if _, err := tx.ExecContext(ctx, "SAVEPOINT flush_row"); err != nil {
			return nil, fmt.Errorf("fallback: savepoint failed: %w", err)
		}
		res, err := mdStmt.ExecContext(ctx, row.Symbol, row.Name, row.Timestamp, row.Timeframe,
			row.Open, row.High, row.Low, row.Close, row.Volume)
		if err == nil {
			_, err = barStmt.ExecContext(ctx, bar.Symbol, bar.Timestamp, bar.Timeframe,
				bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.Complete)
		}
		if err != nil {
			logger.Warnf("[store] 行写入失败 %s@%s，两种形态一并回退: %v", row.Symbol, row.Timestamp, err)
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO flush_row"); rbErr != nil {
				return nil, fmt.Errorf("fallback: savepoint rollback failed: %w", rbErr)
			}
			tx.ExecContext(ctx, "RELEASE flush_row")
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE flush_row"); err != nil {
			return nil, fmt.Errorf("fallback: savepoint release failed: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil || affected < 0 {
			continue
		}
		counts[row.Symbol] += affected
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("fallback: commit failed: %w", err)
	}
	return counts, nil
}
