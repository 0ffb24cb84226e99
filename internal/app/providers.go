package app

import (
	"context"

	"histvault/internal/config"
)

// wire 的 provider 集合放在无构建标签的文件里，
// 生成配置（wire_gen.go）和注入器声明（wire.go）两边都要引用。

type appBuilderDeps interface {
	Build(context.Context) (*App, error)
}

func provideAppFromBuilder(b appBuilderDeps, ctx context.Context) (*App, error) {
	return b.Build(ctx)
}

func provideAppBuilder(cfg *config.Config) *AppBuilder {
	return NewAppBuilder(cfg)
}
