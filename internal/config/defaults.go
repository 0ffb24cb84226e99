package config

import "strings"

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultProviderKind      = "http"
	defaultProviderTimeframe = "1d"
	defaultProviderPageDays  = 90
	defaultProviderTimeout   = 30
	defaultStoragePath       = "/data/db/histvault.db"
	defaultStatusPath        = "/data/db/histvault-status.db"
	defaultBatchSize         = 10
	defaultQueueSize         = 1000
	defaultDownloadYears     = 2
	defaultConcurrency       = 3
	defaultWriterWait        = 300
	defaultAPIAddr           = ":9992"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Provider.applyDefaults()
	c.Storage.applyDefaults()
	c.Download.applyDefaults()
	c.API.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
}

func (p *ProviderConfig) applyDefaults() {
	if strings.TrimSpace(p.Kind) == "" {
		p.Kind = defaultProviderKind
	}
	if strings.TrimSpace(p.Timeframe) == "" {
		p.Timeframe = defaultProviderTimeframe
	}
	if p.PageDays <= 0 {
		p.PageDays = defaultProviderPageDays
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultProviderTimeout
	}
}

func (s *StorageConfig) applyDefaults() {
	if strings.TrimSpace(s.Path) == "" {
		s.Path = defaultStoragePath
	}
	if strings.TrimSpace(s.StatusPath) == "" {
		s.StatusPath = defaultStatusPath
	}
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.QueueSize <= 0 {
		s.QueueSize = defaultQueueSize
	}
}

func (d *DownloadConfig) applyDefaults() {
	if d.Years <= 0 {
		d.Years = defaultDownloadYears
	}
	if d.Concurrency <= 0 {
		d.Concurrency = defaultConcurrency
	}
	if d.WriterWaitSeconds <= 0 {
		d.WriterWaitSeconds = defaultWriterWait
	}
}

func (a *APIConfig) applyDefaults() {
	if strings.TrimSpace(a.Addr) == "" {
		a.Addr = defaultAPIAddr
	}
}
