package scan

import (
	"log/slog"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Publisher receives status and finding-count updates for presentation
// (badge, notification, SSE stream). Implementations must not block: the
// coordinator calls publishers while holding no locks but on the scan's
// critical path.
type Publisher interface {
	PublishStatus(key types.PageKey, status types.ScanStatus)
	PublishCount(key types.PageKey, count int)
}

// NopPublisher discards all updates.
type NopPublisher struct{}

func (NopPublisher) PublishStatus(types.PageKey, types.ScanStatus) {}
func (NopPublisher) PublishCount(types.PageKey, int)               {}

// LogPublisher writes updates to a logger; the CLI uses it for --verbose
// runs where no UI exists.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) PublishStatus(key types.PageKey, status types.ScanStatus) {
	p.logger().Info("scan status",
		slog.String("key", key.String()), slog.String("status", string(status)))
}

func (p LogPublisher) PublishCount(key types.PageKey, count int) {
	p.logger().Info("finding count",
		slog.String("key", key.String()), slog.Int("count", count))
}

func (p LogPublisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
