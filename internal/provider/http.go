package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"histvault/internal/logger"
	"histvault/internal/market"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// 中文说明：
// 通用 HTTP 行情源：GET {base}?symbol=&start=&end=，响应体为 {"data": [...]}。
// 非 2xx 或空响应当作无数据处理，不作为错误上抛。

type HTTPConfig struct {
	BaseURL  string
	PageDays int
	Timeout  time.Duration
}

type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTP(cfg HTTPConfig) (*HTTPProvider, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("http provider: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("http provider: invalid base url: %w", err)
	}
	cfg.BaseURL = base
	if cfg.PageDays <= 0 {
		cfg.PageDays = 90
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProvider{cfg: cfg, client: &http.Client{Timeout: timeout}}, nil
}

// FetchHistory 把 [start, end) 切成 PageDays 大小的子区间并拼接结果。
// 单个子区间的网络错误只丢该区间的数据，不影响同一 symbol 的其余区间。
func (p *HTTPProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.HistoricalPoint, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !start.Before(end) {
		return nil, nil
	}
	span := time.Duration(p.cfg.PageDays) * 24 * time.Hour
	var out []market.HistoricalPoint
	for cur := start; cur.Before(end); cur = cur.Add(span) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		next := cur.Add(span)
		if next.After(end) {
			next = end
		}
		pts, err := p.fetchPage(ctx, symbol, cur, next)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warnf("[provider] %s 区间 %s~%s 拉取失败，跳过: %v",
				symbol, cur.Format("2006-01-02"), next.Format("2006-01-02"), err)
			continue
		}
		out = append(out, pts...)
	}
	return out, nil
}

func (p *HTTPProvider) fetchPage(ctx context.Context, symbol string, start, end time.Time) ([]market.HistoricalPoint, error) {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body)
		logger.Debugf("[provider] %s status=%d，按无数据处理", symbol, resp.StatusCode)
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParsePoints(symbol, body), nil
}

// ParsePoints 容错解析一页响应：缺少任一 OHLC 数值字段或时间戳不可解析的
// 条目直接跳过，volume 缺失或为负时按 0 处理。
func ParsePoints(symbol string, body []byte) []market.HistoricalPoint {
	if len(body) == 0 {
		return nil
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsArray() {
		return nil
	}
	var out []market.HistoricalPoint
	data.ForEach(func(_, item gjson.Result) bool {
		if pt, ok := parsePoint(symbol, item); ok {
			out = append(out, pt)
		}
		return true
	})
	return out
}

func parsePoint(symbol string, item gjson.Result) (market.HistoricalPoint, bool) {
	open, ok := numField(item.Get("open"))
	if !ok {
		return market.HistoricalPoint{}, false
	}
	high, ok := numField(item.Get("high"))
	if !ok {
		return market.HistoricalPoint{}, false
	}
	low, ok := numField(item.Get("low"))
	if !ok {
		return market.HistoricalPoint{}, false
	}
	closeP, ok := numField(item.Get("close"))
	if !ok {
		return market.HistoricalPoint{}, false
	}
	ts, ok := parseTimestamp(item.Get("timestamp"))
	if !ok {
		return market.HistoricalPoint{}, false
	}
	var volume int64
	if v, ok := numField(item.Get("volume")); ok && v > 0 {
		volume = int64(v)
	}
	return market.HistoricalPoint{
		Symbol:    symbol,
		Name:      strings.TrimSpace(item.Get("name").String()),
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    volume,
	}, true
}

// numField 接受 JSON number 或数字字符串（交易所接口常用字符串表示价格）。
func numField(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		d, err := decimal.NewFromString(strings.TrimSpace(r.String()))
		if err != nil {
			return 0, false
		}
		f, _ := d.Float64()
		return f, true
	default:
		return 0, false
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(r gjson.Result) (time.Time, bool) {
	switch r.Type {
	case gjson.Number:
		return fromUnix(r.Int()), true
	case gjson.String:
		s := strings.TrimSpace(r.String())
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n), true
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// fromUnix 兼容秒级与毫秒级时间戳。
func fromUnix(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
