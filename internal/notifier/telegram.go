package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 中文说明：
// Telegram 通知器：回补任务的进度消息推送至指定群/频道。
// 发送失败向调用方上抛，由上层决定是否中断（进度消息属于显式交付物）。

// Telegram 单条消息的长度上限，超出部分截断而不是让 API 报 400。
const telegramTextLimit = 4096

type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client

	// APIBase 默认指向官方 API，测试时可指向本地 httptest server。
	APIBase string
	// Attempts 为总尝试次数（含首次），Backoff 为两次尝试之间的等待基数。
	Attempts int
	Backoff  time.Duration
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 10 * time.Second},
		APIBase:  "https://api.telegram.org",
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

// SendText 发送文本消息，失败按线性退避重试。
func (t *Telegram) SendText(text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return fmt.Errorf("Telegram 配置不完整")
	}
	if len(text) > telegramTextLimit {
		text = text[:telegramTextLimit-1] + "…"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	body, _ := json.Marshal(map[string]any{
		"chat_id": t.ChatID,
		"text":    text,
	})

	attempts := t.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * t.Backoff)
		}
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
	}
	return lastErr
}
