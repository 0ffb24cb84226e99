package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"histvault/internal/logger"
	"histvault/internal/market"

	"github.com/adshao/go-binance/v2/futures"
)

const binanceKlineLimit = 1500

// BinanceProvider 基于 go-binance SDK 的 futures klines 历史数据源。
type BinanceProvider struct {
	client   *futures.Client
	interval string
	step     time.Duration
}

func NewBinance(interval string, timeout time.Duration) (*BinanceProvider, error) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		interval = "1d"
	}
	step, ok := intervalDuration(interval)
	if !ok {
		return nil, fmt.Errorf("binance provider: unsupported interval %q", interval)
	}
	client := futures.NewClient("", "")
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	return &BinanceProvider{client: client, interval: interval, step: step}, nil
}

// FetchHistory 按 limit*interval 的跨度分页拉取 [start, end) 内的 K 线。
// 单页失败只丢该页，记录告警后继续。
func (p *BinanceProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.HistoricalPoint, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	clean := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	span := p.step * binanceKlineLimit
	var out []market.HistoricalPoint
	for cur := start; cur.Before(end); cur = cur.Add(span) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		next := cur.Add(span)
		if next.After(end) {
			next = end
		}
		kls, err := p.client.NewKlinesService().
			Symbol(clean).
			Interval(p.interval).
			StartTime(cur.UnixMilli()).
			EndTime(next.UnixMilli() - 1).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warnf("[binance] %s 区间 %s~%s 拉取失败，跳过: %v",
				symbol, cur.Format("2006-01-02"), next.Format("2006-01-02"), err)
			continue
		}
		for _, kl := range kls {
			if kl == nil {
				continue
			}
			vol := int64(parseFloat(kl.Volume))
			if vol < 0 {
				vol = 0
			}
			out = append(out, market.HistoricalPoint{
				Symbol:    symbol,
				Timestamp: time.UnixMilli(kl.OpenTime).UTC(),
				Open:      parseFloat(kl.Open),
				High:      parseFloat(kl.High),
				Low:       parseFloat(kl.Low),
				Close:     parseFloat(kl.Close),
				Volume:    vol,
			})
		}
	}
	return out, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func intervalDuration(interval string) (time.Duration, bool) {
	if len(interval) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch interval[len(interval)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
