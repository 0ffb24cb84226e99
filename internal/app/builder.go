package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"histvault/internal/api"
	"histvault/internal/config"
	"histvault/internal/ingest"
	"histvault/internal/notifier"
	"histvault/internal/provider"
	"histvault/internal/status"
	"histvault/internal/store"
)

// AppBuilder 把配置装配成可运行的 App，各依赖可被测试覆盖替换。
type AppBuilder struct {
	cfg *config.Config

	providerFn func(config.ProviderConfig) (provider.HistoryProvider, error)
	storeFn    func(config.StorageConfig) (*store.Store, error)
	trackerFn  func(config.StorageConfig) (status.Tracker, error)
	notifierFn func(config.NotifyConfig) notifier.TextNotifier
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		providerFn: buildProvider,
		storeFn:    buildStore,
		trackerFn:  buildTracker,
		notifierFn: buildNotifier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("app builder: nil config")
	}

	st, err := b.storeFn(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing store failed: %w", err)
	}
	tracker, err := b.trackerFn(cfg.Storage)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing status tracker failed: %w", err)
	}
	prov, err := b.providerFn(cfg.Provider)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing provider failed: %w", err)
	}

	svc, err := ingest.NewService(ingest.ServiceConfig{
		Provider:  prov,
		Flusher:   st,
		Truncator: st,
		Tracker:   tracker,
		Notifier:  b.notifierFn(cfg.Notify),
		Names:     staticNames(cfg.Provider.Names),
		Runs:      st,
		Timeframe: cfg.Provider.Timeframe,
		BatchSize: cfg.Storage.BatchSize,
		QueueSize: cfg.Storage.QueueSize,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	app := &App{cfg: cfg, store: st, tracker: tracker, service: svc}
	if cfg.API.Enabled {
		server, err := api.NewServer(api.ServerConfig{
			Addr:     cfg.API.Addr,
			Backfill: svc,
			Runs:     st,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
		app.api = server
	}
	return app, nil
}

func buildProvider(cfg config.ProviderConfig) (provider.HistoryProvider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "binance":
		return provider.NewBinance(cfg.Timeframe, timeout)
	default:
		return provider.NewHTTP(provider.HTTPConfig{
			BaseURL:  cfg.BaseURL,
			PageDays: cfg.PageDays,
			Timeout:  timeout,
		})
	}
}

func buildStore(cfg config.StorageConfig) (*store.Store, error) {
	return store.Open(cfg.Path, cfg.FastPath)
}

func buildTracker(cfg config.StorageConfig) (status.Tracker, error) {
	if strings.TrimSpace(cfg.StatusPath) == "" {
		return status.Noop{}, nil
	}
	return status.NewSQLiteTracker(cfg.StatusPath)
}

func buildNotifier(cfg config.NotifyConfig) notifier.TextNotifier {
	if cfg.Telegram.Enabled {
		return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return notifier.Noop{}
}

// staticNames 用配置里的静态映射充当展示名兜底查询。
// viper 会把嵌套 map 的键统一转成小写，这里按大小写不敏感匹配。
type staticNames map[string]string

func (m staticNames) HasName(symbol string) bool {
	_, ok := m.lookup(symbol)
	return ok
}

func (m staticNames) GetName(symbol string) (string, error) {
	name, _ := m.lookup(symbol)
	return name, nil
}

func (m staticNames) lookup(symbol string) (string, bool) {
	for key, name := range m {
		if strings.EqualFold(key, symbol) {
			return name, true
		}
	}
	return "", false
}
