// Package serve is the CPU-delegation boundary: a worker that accepts
// scan requests as NDJSON over a byte stream and answers with findings.
// The orchestrator and the worker share nothing but the message payloads,
// so regex evaluation over large bundles never blocks the caller's loop.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/imoan723/JSRecon-Buddy/pkg/matcher"
	"github.com/imoan723/JSRecon-Buddy/pkg/scanner"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Server processes scan requests from in and writes responses to out.
type Server struct {
	defaultRules []*types.Rule
	logger       *slog.Logger
	encoder      *json.Encoder
	decoder      *json.Decoder
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a worker. defaultRules are used for scan requests
// that carry no serialized rules of their own.
func NewServer(defaultRules []*types.Rule, in io.Reader, out io.Writer, opts ...ServerOption) *Server {
	s := &Server{
		defaultRules: defaultRules,
		logger:       slog.Default(),
		encoder:      json.NewEncoder(out),
		decoder:      json.NewDecoder(bufio.NewReader(in)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run is the server main loop: emit a ready line, then process requests
// until the input closes, a close request arrives, or ctx is cancelled.
// Decoding runs in its own goroutine so cancellation is never stuck
// behind a blocking read.
func (s *Server) Run(ctx context.Context) error {
	s.encoder.Encode(Response{Status: StatusSuccess, Type: "ready", Version: Version})

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain pending requests before treating EOF as shutdown.
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode: " + err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles one request and reports whether the server
// should exit.
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	switch req.Type {
	case "scan":
		s.handleScan(ctx, req.Payload)
	case "ping":
		s.encoder.Encode(Response{Status: StatusSuccess, Type: "pong", Version: Version})
	case "close":
		return true
	default:
		s.sendError("unknown request type: " + req.Type)
	}
	return false
}

func (s *Server) handleScan(ctx context.Context, payload json.RawMessage) {
	// A panic inside the engine must become an error response, not a
	// dead worker.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked", slog.Any("panic", r))
			s.sendError(fmt.Sprintf("scan panicked: %v", r))
		}
	}()

	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan: " + err.Error())
		return
	}

	rules := s.defaultRules
	if len(p.Rules) > 0 {
		rules = make([]*types.Rule, len(p.Rules))
		for i, sr := range p.Rules {
			rules[i] = sr.Rule()
		}
	}

	params := p.Params
	if params == nil {
		params = matcher.DefaultParams
	}

	core, err := scanner.NewCore(rules, params, scanner.WithLogger(s.logger))
	if err != nil {
		s.sendError("scan: " + err.Error())
		return
	}

	result, err := core.Scan(ctx, p.PageURL, p.Sources)
	if err != nil {
		s.sendError("scan: " + err.Error())
		return
	}

	s.encoder.Encode(Response{Status: StatusSuccess, Type: "scan", Findings: result})
}

func (s *Server) sendError(msg string) {
	s.encoder.Encode(Response{Status: StatusError, Message: msg})
}
