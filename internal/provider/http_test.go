package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoints_TolerantParsing(t *testing.T) {
	body := []byte(`{"data": [
		{"timestamp": 1704067200, "name": "Bitcoin", "open": 42000.5, "high": 43000, "low": 41000, "close": 42500, "volume": 1234},
		{"timestamp": 1704153600, "open": "42500.25", "high": "43100.5", "low": "42000", "close": "42900", "volume": "987"},
		{"timestamp": 1704240000, "high": 43000, "low": 41000, "close": 42500, "volume": 10},
		{"timestamp": "not-a-time", "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 10},
		{"timestamp": 1704326400, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": -44},
		{"timestamp": "2024-01-05T00:00:00Z", "open": 5, "high": 6, "low": 4, "close": 5.5}
	]}`)

	pts := ParsePoints("BTC/USDT", body)
	require.Len(t, pts, 4, "缺 open 与坏时间戳的条目被跳过，不报错")

	assert.Equal(t, "Bitcoin", pts[0].Name)
	assert.Equal(t, 42000.5, pts[0].Open)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), pts[0].Timestamp)
	assert.Equal(t, int64(1234), pts[0].Volume)

	assert.Equal(t, 42500.25, pts[1].Open, "字符串数值同样接受")
	assert.Equal(t, int64(987), pts[1].Volume)

	assert.Equal(t, int64(0), pts[2].Volume, "负 volume 压到 0")
	assert.Equal(t, int64(0), pts[3].Volume, "缺失 volume 按 0")
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), pts[3].Timestamp)
}

func TestParsePoints_DegenerateBodies(t *testing.T) {
	assert.Empty(t, ParsePoints("BTC/USDT", nil))
	assert.Empty(t, ParsePoints("BTC/USDT", []byte(`{}`)))
	assert.Empty(t, ParsePoints("BTC/USDT", []byte(`{"data": "oops"}`)))
	assert.Empty(t, ParsePoints("BTC/USDT", []byte(`not json at all`)))
}

func TestParsePoints_MillisecondTimestamps(t *testing.T) {
	body := []byte(`{"data": [{"timestamp": 1704067200000, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 1}]}`)
	pts := ParsePoints("BTC/USDT", body)
	require.Len(t, pts, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), pts[0].Timestamp)
}

func TestFetchHistory_ChunksWindow(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "BTC/USDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"data": [{"timestamp": 1704067200, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 1}]}`))
	}))
	defer srv.Close()

	p, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, PageDays: 30})
	require.NoError(t, err)

	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -90)
	pts, err := p.FetchHistory(context.Background(), "BTC/USDT", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load(), "90 天窗口按 30 天一页切三段")
	assert.Len(t, pts, 3)
}

func TestFetchHistory_NonSuccessStatusMeansNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, PageDays: 400})
	require.NoError(t, err)

	end := time.Now().UTC()
	pts, err := p.FetchHistory(context.Background(), "BTC/USDT", end.AddDate(-1, 0, 0), end)
	require.NoError(t, err, "非 2xx 不是错误")
	assert.Empty(t, pts)
}

func TestFetchHistory_ChunkFailureIsolated(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := requests.Add(1)
		if n == 2 {
			// 掐断连接模拟网络层错误
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{"data": [{"timestamp": 1704067200, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 1}]}`))
	}))
	defer srv.Close()

	p, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, PageDays: 30})
	require.NoError(t, err)

	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	pts, err := p.FetchHistory(context.Background(), "BTC/USDT", end.AddDate(0, 0, -90), end)
	require.NoError(t, err, "单页网络错误只丢该页")
	assert.Len(t, pts, 2)
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchHistory_InputValidation(t *testing.T) {
	p, err := NewHTTP(HTTPConfig{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = p.FetchHistory(context.Background(), "  ", time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)

	pts, err := p.FetchHistory(context.Background(), "BTC/USDT", time.Now(), time.Now().Add(-time.Hour))
	assert.NoError(t, err)
	assert.Empty(t, pts, "空窗口直接返回")
}

func TestNewHTTP_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{})
	assert.Error(t, err)
}

func TestIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1m", time.Minute, true},
		{"4h", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{"", 0, false},
		{"xx", 0, false},
		{"0d", 0, false},
	}
	for _, tc := range cases {
		got, ok := intervalDuration(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
