package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// ErrProtocol reports a response that violates the worker protocol.
var ErrProtocol = errors.New("serve: protocol error")

// ErrClientClosed reports a request made after the response stream ended.
var ErrClientClosed = errors.New("serve: client closed")

// Client speaks the worker protocol over any read/write pair: a spawned
// subprocess's pipes, a net.Pipe in tests, or a socket. Requests are
// serialized: one in flight at a time. A single reader goroutine owns the
// decoder for the client's whole lifetime, so a caller abandoning its wait
// on ctx cancellation leaves the stream intact; the worker answers
// requests in order, and the stale response is discarded before the next
// exchange.
type Client struct {
	mu      sync.Mutex
	encoder *json.Encoder
	closer  io.Closer

	responses chan clientResponse
	done      chan struct{}
	stop      sync.Once

	// stale counts responses abandoned by cancelled calls, still owed by
	// the worker ahead of the next request's response. Guarded by mu.
	stale int
}

type clientResponse struct {
	resp Response
	err  error
}

// NewClient wraps rw, waits for the worker's ready line, and starts the
// response reader.
func NewClient(rw io.ReadWriter) (*Client, error) {
	c := &Client{
		encoder:   json.NewEncoder(rw),
		responses: make(chan clientResponse, 1),
		done:      make(chan struct{}),
	}
	if closer, ok := rw.(io.Closer); ok {
		c.closer = closer
	}

	decoder := json.NewDecoder(bufio.NewReader(rw))
	var ready Response
	if err := decoder.Decode(&ready); err != nil {
		return nil, fmt.Errorf("waiting for worker ready: %w", err)
	}
	if ready.Type != "ready" {
		return nil, fmt.Errorf("%w: expected ready, got %q", ErrProtocol, ready.Type)
	}

	go c.readLoop(decoder)
	return c, nil
}

// readLoop is the only reader of the decoder after the ready handshake.
// It exits on the first decode error or when Close signals done.
func (c *Client) readLoop(decoder *json.Decoder) {
	defer close(c.responses)
	for {
		var resp Response
		if err := decoder.Decode(&resp); err != nil {
			select {
			case c.responses <- clientResponse{err: err}:
			case <-c.done:
			}
			return
		}
		select {
		case c.responses <- clientResponse{resp: resp}:
		case <-c.done:
			return
		}
	}
}

// recv returns the next response owed to the calling request, skipping
// responses whose callers gave up. Callers hold c.mu.
func (c *Client) recv(ctx context.Context) (Response, error) {
	for {
		select {
		case <-ctx.Done():
			// Our response is still owed; the next exchange drops it.
			c.stale++
			return Response{}, ctx.Err()
		case r, ok := <-c.responses:
			if !ok {
				return Response{}, ErrClientClosed
			}
			if r.err != nil {
				return Response{}, fmt.Errorf("reading worker response: %w", r.err)
			}
			if c.stale > 0 {
				c.stale--
				continue
			}
			return r.resp, nil
		}
	}
}

// Scan sends one scan request and waits for its findings. A worker error
// response comes back as an error; ctx cancellation abandons the wait and
// the worker's eventual response is discarded by the next exchange.
func (c *Client) Scan(ctx context.Context, payload ScanPayload) (*types.ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding scan payload: %w", err)
	}
	if err := c.encoder.Encode(Request{Type: "scan", Payload: raw}); err != nil {
		return nil, fmt.Errorf("sending scan request: %w", err)
	}

	resp, err := c.recv(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Status != StatusSuccess {
		return nil, fmt.Errorf("worker error: %s", resp.Message)
	}
	return resp.Findings, nil
}

// Ping checks worker liveness.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encoder.Encode(Request{Type: "ping"}); err != nil {
		return fmt.Errorf("sending ping: %w", err)
	}
	resp, err := c.recv(ctx)
	if err != nil {
		return err
	}
	if resp.Type != "pong" {
		return fmt.Errorf("%w: expected pong, got %q", ErrProtocol, resp.Type)
	}
	return nil
}

// Close asks the worker to exit, stops the reader, and closes the
// transport. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.encoder.Encode(Request{Type: "close"})
	c.stop.Do(func() { close(c.done) })
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
