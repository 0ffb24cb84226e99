package ingest

import (
	"context"
	"sync/atomic"

	"histvault/internal/logger"
	"histvault/internal/market"
)

// BatchFlusher 把一个批次写入两种持久化形态，返回按 symbol 归属的插入行数。
type BatchFlusher interface {
	FlushBatch(ctx context.Context, points []market.HistoricalPoint, timeframe string) (map[string]int64, error)
}

// globalWriter 是唯一的消费端：排空共享队列、按固定批次落库、
// 把返回的行数归属到各 symbol 的计数器上。
// 队列关闭且读空即退出（channel 的关闭语义天然区分"暂时为空"与"生产完毕"）。
type globalWriter struct {
	flusher   BatchFlusher
	timeframe string
	batchSize int
	counters  map[string]*atomic.Int64
}

// run 返回本次循环累计插入的总行数。
func (w *globalWriter) run(ctx context.Context, queue <-chan market.HistoricalPoint) int64 {
	batch := make([]market.HistoricalPoint, 0, w.batchSize)
	var total int64
	for pt := range queue {
		batch = append(batch, pt)
		if len(batch) >= w.batchSize {
			total += w.flush(ctx, batch)
			batch = batch[:0]
		}
	}
	total += w.flush(ctx, batch)
	return total
}

// flush 落一个批次；整批失败只记日志并按 0 计，绝不中断写入循环。
func (w *globalWriter) flush(ctx context.Context, batch []market.HistoricalPoint) int64 {
	if len(batch) == 0 {
		return 0
	}
	counts, err := w.flusher.FlushBatch(ctx, batch, w.timeframe)
	if err != nil {
		logger.Warnf("[ingest] 批次落库失败，丢弃该批次（%d 条）: %v", len(batch), err)
		return 0
	}
	var n int64
	for sym, c := range counts {
		if counter, ok := w.counters[sym]; ok {
			counter.Add(c)
		}
		n += c
	}
	return n
}
