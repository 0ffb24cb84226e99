package ingest

import (
	"strings"

	"histvault/internal/logger"
	"histvault/internal/market"
)

// NameSource 是展示名回填的兜底查询接口。
type NameSource interface {
	HasName(symbol string) bool
	GetName(symbol string) (string, error)
}

// backfillNames 对一个 symbol 的新解析点位做展示名回填。
// 不论多少行缺名，对同一 symbol 只发起一次查询；查无此名或查询出错都保持
// 原样返回——这是锦上添花的补全，任何失败都不得进入写入路径。
func backfillNames(points []market.HistoricalPoint, symbol string, src NameSource) {
	if src == nil || len(points) == 0 {
		return
	}
	missing := false
	for i := range points {
		if strings.TrimSpace(points[i].Name) == "" {
			missing = true
			break
		}
	}
	if !missing {
		return
	}
	if !src.HasName(symbol) {
		return
	}
	name, err := src.GetName(symbol)
	if err != nil {
		logger.Warnf("[ingest] %s 展示名查询失败，保持原样: %v", symbol, err)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for i := range points {
		if strings.TrimSpace(points[i].Name) == "" {
			points[i].Name = name
		}
	}
}
