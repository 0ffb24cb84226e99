package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTelegram(serverURL string) *Telegram {
	tg := NewTelegram("token-123", "chat-456")
	tg.APIBase = serverURL
	tg.Backoff = time.Millisecond
	return tg
}

func TestTelegram_SendText(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken-123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestTelegram(srv.URL).SendText("回补完成")
	require.NoError(t, err)
	assert.Equal(t, "chat-456", payload["chat_id"])
	assert.Equal(t, "回补完成", payload["text"])
}

func TestTelegram_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestTelegram(srv.URL).SendText("hello")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegram_ExhaustedRetriesReturnLastError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestTelegram(srv.URL).SendText("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegram_TruncatesOverlongMessages(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sent = payload["text"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestTelegram(srv.URL).SendText(strings.Repeat("a", telegramTextLimit+100))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(sent), telegramTextLimit+2)
	assert.True(t, strings.HasSuffix(sent, "…"))
}

func TestTelegram_IncompleteConfig(t *testing.T) {
	tg := NewTelegram("", "")
	assert.Error(t, tg.SendText("hello"))
}
