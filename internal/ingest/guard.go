package ingest

import (
	"context"
	"sync"
)

// Truncator 清空行情目标表。
type Truncator interface {
	TruncateAll(ctx context.Context) error
}

// TruncateGuard 保证"重载前清表"在一次生命周期内最多执行一次。
// 清表失败时先把闸门复位再上抛，重试会真正再清一次而不是被静默跳过。
type TruncateGuard struct {
	mu     sync.Mutex
	done   bool
	target Truncator
}

func NewTruncateGuard(target Truncator) *TruncateGuard {
	return &TruncateGuard{target: target}
}

// TruncateIfNeeded 首次调用清空目标表，之后调用为 no-op，直到 Reset。
func (g *TruncateGuard) TruncateIfNeeded(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return nil
	}
	if g.target != nil {
		if err := g.target.TruncateAll(ctx); err != nil {
			g.done = false
			return err
		}
	}
	g.done = true
	return nil
}

// Reset 重新武装闸门，下次 TruncateIfNeeded 会再清一次表。
func (g *TruncateGuard) Reset() {
	g.mu.Lock()
	g.done = false
	g.mu.Unlock()
}
