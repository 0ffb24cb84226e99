package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Provider.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Kind)) {
	case "http":
		if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("provider.base_url is required when kind is http")
		}
	case "binance":
	default:
		return fmt.Errorf("provider.kind must be http or binance, got %q", p.Kind)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if tg.Enabled && (strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
