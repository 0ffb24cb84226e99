package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Store 管理行情历史数据的 SQLite 存储（gorm + WAL）。
type Store struct {
	db          *gorm.DB
	fastEnabled bool
}

func Open(path string, fastPath bool) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	// DriverName 指向 modernc.org/sqlite（纯 Go），DSN 的 _pragma 语法即为该驱动格式；
	// 默认的 mattn 驱动在 CGO_ENABLED=0 下只是 stub。
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newStore(db, fastPath)
}

// NewFromDB 复用外部 gorm 连接，测试场景使用。
func NewFromDB(db *gorm.DB, fastPath bool) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: gorm db cannot be nil")
	}
	return newStore(db, fastPath)
}

func newStore(db *gorm.DB, fastPath bool) (*Store, error) {
	models := []interface{}{
		&BarModel{},
		&MarketDataModel{},
		&RunModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db, fastEnabled: fastPath}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BulkHandle 返回快路径批量写入句柄；快路径被禁用或连接缺失时返回 nil，
// 调用方据此退回通用批量执行路径。
func (s *Store) BulkHandle() *gorm.DB {
	if s == nil || s.db == nil || !s.fastEnabled {
		return nil
	}
	return s.db
}

// TruncateAll 清空两张行情表（download_runs 审计表保留）。
func (s *Store) TruncateAll(ctx context.Context) error {
	for _, table := range []string{"bars", "market_data"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("truncating %s failed: %w", table, err)
		}
	}
	return nil
}

// CountBars / CountMarketData 供测试与 API 查询使用。
func (s *Store) CountBars(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&BarModel{}).Count(&n).Error
	return n, err
}

func (s *Store) CountMarketData(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&MarketDataModel{}).Count(&n).Error
	return n, err
}
