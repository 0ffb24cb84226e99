package ingest

import (
	"context"
	"sync/atomic"
	"testing"

	"histvault/internal/market"

	"github.com/stretchr/testify/assert"
)

func TestGlobalWriter_FixedSizeBatches(t *testing.T) {
	flusher := &recordingFlusher{}
	counters := map[string]*atomic.Int64{"BTC/USDT": {}}
	w := &globalWriter{flusher: flusher, timeframe: "1d", batchSize: 10, counters: counters}

	queue := make(chan market.HistoricalPoint, 32)
	for _, pt := range genPoints("BTC/USDT", 25) {
		queue <- pt
	}
	close(queue)

	total := w.run(context.Background(), queue)
	assert.Equal(t, int64(25), total)
	assert.Equal(t, []int{10, 10, 5}, flusher.batchSizes(), "满批先落，收尾批兜底")
	assert.Equal(t, int64(25), counters["BTC/USDT"].Load())
}

func TestGlobalWriter_UnknownSymbolCountIgnored(t *testing.T) {
	flusher := &recordingFlusher{}
	counters := map[string]*atomic.Int64{"BTC/USDT": {}}
	w := &globalWriter{flusher: flusher, timeframe: "1d", batchSize: 10, counters: counters}

	queue := make(chan market.HistoricalPoint, 8)
	for _, pt := range genPoints("UNKNOWN/USDT", 3) {
		queue <- pt
	}
	close(queue)

	total := w.run(context.Background(), queue)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(0), counters["BTC/USDT"].Load())
}
