package config

// Config 是 histvault 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Provider ProviderConfig `toml:"provider"`
	Storage  StorageConfig  `toml:"storage"`
	Download DownloadConfig `toml:"download"`
	Notify   NotifyConfig   `toml:"notify"`
	API      APIConfig      `toml:"api"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// ProviderConfig 选择行情数据来源。
// kind = "http"（通用 JSON 接口）或 "binance"（futures klines）。
type ProviderConfig struct {
	Kind           string            `toml:"kind"`
	BaseURL        string            `toml:"base_url"`
	Timeframe      string            `toml:"timeframe"`
	PageDays       int               `toml:"page_days"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	Names          map[string]string `toml:"names"`
}

type StorageConfig struct {
	Path       string `toml:"path"`
	StatusPath string `toml:"status_path"`
	BatchSize  int    `toml:"batch_size"`
	QueueSize  int    `toml:"queue_size"`
	FastPath   bool   `toml:"fast_path"`
}

// DownloadConfig 是一次回补调用的默认参数，API/CLI 均可覆盖。
type DownloadConfig struct {
	Symbols           []string `toml:"symbols"`
	Years             int      `toml:"years"`
	Concurrency       int      `toml:"concurrency"`
	WriterWaitSeconds int      `toml:"writer_wait_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}
