package store

import (
	"time"

	"histvault/internal/market"

	"gorm.io/datatypes"
)

// BarModel 是粗粒度 K 线表，回测引擎只消费这张表。
type BarModel struct {
	ID        uint64    `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;uniqueIndex:idx_bars_key,priority:1"`
	Timestamp time.Time `gorm:"uniqueIndex:idx_bars_key,priority:2"`
	Timeframe string    `gorm:"size:8;uniqueIndex:idx_bars_key,priority:3"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Complete  bool
}

func (BarModel) TableName() string { return "bars" }

// MarketDataModel 是带展示名与 timeframe 标签的明细表。
type MarketDataModel struct {
	ID        uint64    `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;uniqueIndex:idx_market_data_key,priority:1"`
	Name      string    `gorm:"size:128"`
	Timestamp time.Time `gorm:"uniqueIndex:idx_market_data_key,priority:2"`
	Timeframe string    `gorm:"size:8;uniqueIndex:idx_market_data_key,priority:3"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

func (MarketDataModel) TableName() string { return "market_data" }

// RunModel 记录每次回补调用的参数与结果，便于事后审计。
type RunModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	StartedAt     time.Time
	FinishedAt    time.Time
	Years         int
	Concurrency   int
	Symbols       datatypes.JSON
	Results       datatypes.JSON
	TotalInserted int64
}

func (RunModel) TableName() string { return "download_runs" }

// toModels 把一批点位 1:1 映射成两种持久化形态。
func toModels(points []market.HistoricalPoint, timeframe string) ([]BarModel, []MarketDataModel) {
	bars := make([]BarModel, 0, len(points))
	rows := make([]MarketDataModel, 0, len(points))
	for _, pt := range points {
		bars = append(bars, BarModel{
			Symbol:    pt.Symbol,
			Timestamp: pt.Timestamp,
			Timeframe: timeframe,
			Open:      pt.Open,
			High:      pt.High,
			Low:       pt.Low,
			Close:     pt.Close,
			Volume:    pt.Volume,
			Complete:  true,
		})
		rows = append(rows, MarketDataModel{
			Symbol:    pt.Symbol,
			Name:      pt.Name,
			Timestamp: pt.Timestamp,
			Timeframe: timeframe,
			Open:      pt.Open,
			High:      pt.High,
			Low:       pt.Low,
			Close:     pt.Close,
			Volume:    pt.Volume,
		})
	}
	return bars, rows
}
