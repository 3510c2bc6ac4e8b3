package scanner

import (
	"log/slog"

	"github.com/imoan723/JSRecon-Buddy/pkg/matcher"
)

// defaultYieldEvery is how many sources are processed between cooperative
// yields.
const defaultYieldEvery = 5

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the engine's logger. Default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithYieldEvery sets the source-batch size between cooperative yields.
func WithYieldEvery(n int) Option {
	return func(c *Core) {
		if n > 0 {
			c.yieldEvery = n
		}
	}
}

// WithOnYield replaces the yield hook, default runtime.Gosched. Tests use
// this to observe yield points.
func WithOnYield(fn func()) Option {
	return func(c *Core) {
		if fn != nil {
			c.onYield = fn
		}
	}
}

// WithChunkConfig overrides how oversized sources are split for matching.
func WithChunkConfig(cfg matcher.ChunkConfig) Option {
	return func(c *Core) {
		if cfg.MaxChunkSize > 0 {
			c.chunkCfg = cfg
		}
	}
}
