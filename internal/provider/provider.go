package provider

import (
	"context"
	"time"

	"histvault/internal/market"
)

// HistoryProvider 按 symbol 拉取一段时间窗口内的全部历史 K 线。
// 实现方负责把窗口切分为数据源允许的子区间，单个子区间失败只丢该区间。
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.HistoricalPoint, error)
}
