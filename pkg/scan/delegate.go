package scan

import (
	"context"

	"github.com/imoan723/JSRecon-Buddy/pkg/scanner"
	"github.com/imoan723/JSRecon-Buddy/pkg/serve"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Delegate runs the CPU-heavy matching step. The coordinator talks to the
// engine only through this interface so in-process and out-of-process
// execution share one code path.
type Delegate interface {
	Scan(ctx context.Context, pageURL string, sources []types.ContentSource) (*types.ScanResult, error)
}

// EngineDelegate runs the engine in process.
type EngineDelegate struct {
	Core *scanner.Core
}

// Scan implements Delegate.
func (d EngineDelegate) Scan(ctx context.Context, pageURL string, sources []types.ContentSource) (*types.ScanResult, error) {
	return d.Core.Scan(ctx, pageURL, sources)
}

// WorkerDelegate ships the work to a serve worker over the NDJSON
// protocol. Rules and params are serialized once at construction; only
// payload data crosses the boundary per scan.
type WorkerDelegate struct {
	Client *serve.Client
	Rules  []serve.SerializedRule
	Params []string
}

// NewWorkerDelegate builds a delegate for client using the given catalog.
func NewWorkerDelegate(client *serve.Client, rules []*types.Rule, params []string) *WorkerDelegate {
	return &WorkerDelegate{
		Client: client,
		Rules:  serve.SerializeRules(rules),
		Params: params,
	}
}

// Scan implements Delegate. A worker failure surfaces as an error the
// coordinator maps to the error status.
func (d *WorkerDelegate) Scan(ctx context.Context, pageURL string, sources []types.ContentSource) (*types.ScanResult, error) {
	return d.Client.Scan(ctx, serve.ScanPayload{
		PageURL: pageURL,
		Sources: sources,
		Rules:   d.Rules,
		Params:  d.Params,
	})
}
