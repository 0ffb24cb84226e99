package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"histvault/internal/logger"
	"histvault/internal/market"
	"histvault/internal/notifier"
	"histvault/internal/provider"
	"histvault/internal/status"

	"golang.org/x/sync/semaphore"
)

// 中文说明：
// 多 symbol 历史行情回补的编排层：N 个拉取 goroutine（受并发许可约束）
// 通过有界队列喂给唯一的写入 goroutine。队列写满时生产端阻塞（背压），
// 编排端对写入完成的等待有时间上限——超时后带着已归属的计数直接返回，
// 写入 goroutine 继续在后台排空队列（尽力而为的持久化取舍）。

const taskName = "historical-download"

// RunRecorder 落一条回补审计记录。
type RunRecorder interface {
	RecordRun(ctx context.Context, symbols []string, years, concurrency int, results map[string]*market.DownloadResult) error
}

// ServiceConfig 聚合编排层的全部协作方。
type ServiceConfig struct {
	Provider  provider.HistoryProvider
	Flusher   BatchFlusher
	Truncator Truncator
	Tracker   status.Tracker
	Notifier  notifier.TextNotifier
	Names     NameSource
	Runs      RunRecorder
	Timeframe string
	BatchSize int
	QueueSize int
}

// Service 持有一次进程生命周期内的回补状态（清表闸门等），
// 刻意做成实例字段而不是包级全局量，方便每个测试独立构造。
type Service struct {
	provider  provider.HistoryProvider
	flusher   BatchFlusher
	guard     *TruncateGuard
	tracker   status.Tracker
	notify    notifier.TextNotifier
	names     NameSource
	runs      RunRecorder
	timeframe string
	batchSize int
	queueSize int
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("ingest: provider is required")
	}
	if cfg.Flusher == nil {
		return nil, fmt.Errorf("ingest: batch flusher is required")
	}
	if cfg.Tracker == nil {
		cfg.Tracker = status.Noop{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.Noop{}
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "1d"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	return &Service{
		provider:  cfg.Provider,
		flusher:   cfg.Flusher,
		guard:     NewTruncateGuard(cfg.Truncator),
		tracker:   cfg.Tracker,
		notify:    cfg.Notifier,
		names:     cfg.Names,
		runs:      cfg.Runs,
		timeframe: cfg.Timeframe,
		batchSize: cfg.BatchSize,
		queueSize: cfg.QueueSize,
	}, nil
}

// ResetTruncateGate 重新武装清表闸门，下一次 Run 会再执行一次清表。
func (s *Service) ResetTruncateGate() { s.guard.Reset() }

// Run 对给定 symbol 列表执行一次完整回补，结果映射对每个输入 symbol
// 恰有一个条目——即使全部失败也是如此。writerWait 是对写入端完成的
// 有界等待：超时不取消写入端，只带着当前已归属的计数返回。
func (s *Service) Run(ctx context.Context, symbols []string, years, concurrency int, writerWait time.Duration) (map[string]*market.DownloadResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("ingest: symbols are required")
	}
	if years <= 0 {
		years = 1
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make(map[string]*market.DownloadResult, len(symbols))
	counters := make(map[string]*atomic.Int64, len(symbols))
	for _, sym := range symbols {
		results[sym] = &market.DownloadResult{Symbol: sym}
		counters[sym] = &atomic.Int64{}
	}

	taskID := s.tracker.Begin(taskName)
	defer s.tracker.Complete(taskID)

	if err := s.guard.TruncateIfNeeded(ctx); err != nil {
		return results, fmt.Errorf("truncate before reload failed: %w", err)
	}

	// 进度消息是显式交付物，发送失败向调用方上抛。
	if err := s.notify.SendText(fmt.Sprintf("📥 历史行情回补开始：%d 个 symbol，回看 %d 年", len(symbols), years)); err != nil {
		return results, err
	}

	end := time.Now().UTC()
	start := end.AddDate(-years, 0, 0)
	queue := make(chan market.HistoricalPoint, s.queueSize)
	sem := semaphore.NewWeighted(int64(concurrency))

	writer := &globalWriter{
		flusher:   s.flusher,
		timeframe: s.timeframe,
		batchSize: s.batchSize,
		counters:  counters,
	}
	writerDone := make(chan int64, 1)
	// 写入端不随调用方取消：等待超时后它继续在后台排空队列。
	writerCtx := context.WithoutCancel(ctx)
	go func() {
		writerDone <- writer.run(writerCtx, queue)
	}()

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			s.fetchSymbol(ctx, sym, start, end, sem, queue, results[sym])
		}(sym)
	}
	wg.Wait()
	close(queue) // 生产完毕信号

	drained := false
	var total int64
	select {
	case total = <-writerDone:
		drained = true
	case <-time.After(writerWait):
		logger.Warnf("[ingest] 等待写入端超时（%s），按已归属计数返回", writerWait)
	}

	for sym, res := range results {
		inserted := counters[sym].Load()
		// 被取消的 symbol 记零，即使个别行在取消前已经落库。
		if inserted > res.TotalRecords {
			inserted = res.TotalRecords
		}
		res.Inserted = inserted
		// skipped 只在写入端排空后才能成立：超时路径上未归属的行
		// 既不算插入也不算跳过，留给 inserted+skipped < total 体现。
		if drained {
			if skipped := res.TotalRecords - res.Inserted; skipped > 0 {
				res.Skipped = skipped
			}
		}
	}
	if !drained {
		total = 0
		for _, res := range results {
			total += res.Inserted
		}
	}

	if s.runs != nil {
		if err := s.runs.RecordRun(ctx, symbols, years, concurrency, results); err != nil {
			logger.Warnf("[ingest] 回补审计记录失败: %v", err)
		}
	}
	if err := s.notify.SendText(fmt.Sprintf("✅ 历史行情回补完成：%d 个 symbol，插入 %d 行", len(symbols), total)); err != nil {
		return results, err
	}
	return results, nil
}

// fetchSymbol 是单个 symbol 的生产端：取许可 → 拉全窗口 → 回填展示名 →
// 入队。任何一步被取消都给该 symbol 记零结果后返回，绝不挂起，
// 也不影响兄弟 symbol；取消信号保留在 ctx 上由调用方观察。
func (s *Service) fetchSymbol(ctx context.Context, symbol string, start, end time.Time, sem *semaphore.Weighted, queue chan<- market.HistoricalPoint, res *market.DownloadResult) {
	if err := sem.Acquire(ctx, 1); err != nil {
		logger.Warnf("[ingest] %s 等待并发许可被取消: %v", symbol, err)
		return
	}
	defer sem.Release(1)

	points, err := s.provider.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		logger.Warnf("[ingest] %s 拉取失败，该 symbol 记零: %v", symbol, err)
		return
	}
	backfillNames(points, symbol, s.names)

	res.TotalRecords = int64(len(points))
	for _, pt := range points {
		select {
		case queue <- pt:
		case <-ctx.Done():
			res.TotalRecords = 0
			logger.Warnf("[ingest] %s 入队被取消，该 symbol 记零", symbol)
			return
		}
	}
	logger.Debugf("[ingest] %s 入队完成，共 %d 条", symbol, len(points))
}
