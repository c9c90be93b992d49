// Package cli drives the claude binary as a child process.
//
// A Client builds the argument vector from its Config, runs the binary
// under a timeout and turns the output into a types.Response, or into a
// MessageStream of types.Message values for incremental consumption.
//
//	client, err := cli.NewClient(types.NewConfig(
//		types.WithModel(types.ModelSonnet),
//		types.WithStreamFormat(types.StreamFormat_JSON),
//	))
//	if err != nil {
//		return err
//	}
//	resp, err := client.SendFull(ctx, "What is 2+2?")
package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xhd2015/clau/types"
	"golang.org/x/sync/errgroup"
)

type ClientOption func(opts *clientOptions)

type clientOptions struct {
	executor     Executor
	legacyStream bool
}

// WithExecutor replaces the process executor, mainly for tests
func WithExecutor(executor Executor) ClientOption {
	return func(opts *clientOptions) {
		opts.executor = executor
	}
}

// WithLegacyStream makes Stream run the request to completion and
// then emit a single assistant message with the whole answer
func WithLegacyStream() ClientOption {
	return func(opts *clientOptions) {
		opts.legacyStream = true
	}
}

// Client is safe for concurrent use, requests share no mutable state
type Client struct {
	config       types.Config
	runner       *Runner
	logger       types.Logger
	legacyStream bool
}

// NewClient validates config and keeps a private copy of it
func NewClient(config types.Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}
	logger := types.GetLogger(config.Logger, config.Verbose)
	return &Client{
		config:       config.Clone(),
		runner:       NewRunner(options.executor, logger),
		logger:       logger,
		legacyStream: options.legacyStream,
	}, nil
}

// Config returns a copy of the client configuration
func (c *Client) Config() types.Config {
	return c.config.Clone()
}

// Send runs query and returns the answer text
func (c *Client) Send(ctx context.Context, query string) (string, error) {
	return c.Query(query).Send(ctx)
}

// SendFull runs query and returns the parsed response
func (c *Client) SendFull(ctx context.Context, query string) (*types.Response, error) {
	return c.Query(query).SendFull(ctx)
}

// Stream runs query and returns its messages as they are produced
func (c *Client) Stream(ctx context.Context, query string) (*MessageStream, error) {
	return c.Query(query).Stream(ctx)
}

// SendAll runs independent queries concurrently, at most limit at
// a time when limit > 0. Responses are in query order. The first
// failure cancels the remaining queries.
func (c *Client) SendAll(ctx context.Context, queries []string, limit int) ([]*types.Response, error) {
	responses := make([]*types.Response, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, query := range queries {
		g.Go(func() error {
			resp, err := c.SendFull(gctx, query)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// Query starts a request with per-query overrides
func (c *Client) Query(query string) *QueryBuilder {
	return &QueryBuilder{
		client: c,
		query:  query,
	}
}

// QueryBuilder carries per-query overrides, the client config
// itself is never modified
type QueryBuilder struct {
	client    *Client
	query     string
	format    types.StreamFormat
	sessionID types.SessionID
}

// Session tags the messages of this query with id
// until the binary reports its own session id
func (q *QueryBuilder) Session(id types.SessionID) *QueryBuilder {
	q.sessionID = id
	return q
}

// Format overrides the output format for this query only
func (q *QueryBuilder) Format(format types.StreamFormat) *QueryBuilder {
	q.format = format
	return q
}

func (q *QueryBuilder) config() types.Config {
	cfg := q.client.config.Clone()
	if q.format != "" {
		cfg.StreamFormat = q.format
	}
	return cfg
}

func (q *QueryBuilder) command(cfg *types.Config) Command {
	return Command{
		Path: cfg.BinaryOrDefault(),
		Args: BuildArgs(cfg, q.query),
		Dir:  cfg.Dir,
		Env:  cfg.Env,
	}
}

func (q *QueryBuilder) Send(ctx context.Context) (string, error) {
	resp, err := q.SendFull(ctx)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (q *QueryBuilder) SendFull(ctx context.Context) (*types.Response, error) {
	cfg := q.config()
	if _, err := types.ParseStreamFormat(string(cfg.StreamFormat)); err != nil {
		return nil, err
	}
	out, err := q.client.runner.Execute(ctx, q.command(&cfg), cfg.Timeout())
	if err != nil {
		return nil, err
	}
	resp, err := Parse(cfg.StreamFormat, out.Stdout)
	if err != nil {
		return nil, err
	}
	if resp.SkippedLines > 0 {
		q.client.logger.Log(ctx, types.LogType_Error, "skipped %d malformed lines", resp.SkippedLines)
	}
	return resp, nil
}

// ParseOutput decodes the answer text as JSON into v
func (q *QueryBuilder) ParseOutput(ctx context.Context, v interface{}) error {
	content, err := q.Send(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), v); err != nil {
		return &types.SerializationError{Err: err}
	}
	return nil
}

// Stream decodes stream-json output incrementally. Other formats,
// or a client created WithLegacyStream, run to completion first and
// yield one assistant message.
func (q *QueryBuilder) Stream(ctx context.Context) (*MessageStream, error) {
	cfg := q.config()
	if _, err := types.ParseStreamFormat(string(cfg.StreamFormat)); err != nil {
		return nil, err
	}
	if q.client.legacyStream || cfg.StreamFormat.OrDefault() != types.StreamFormat_StreamJSON {
		return newMessageStream(ctx, q.produceLegacy), nil
	}
	return newMessageStream(ctx, func(ctx context.Context, emit func(msg types.Message) bool) error {
		return q.produceIncremental(ctx, &cfg, emit)
	}), nil
}

func (q *QueryBuilder) produceLegacy(ctx context.Context, emit func(msg types.Message) bool) error {
	resp, err := q.SendFull(ctx)
	if err != nil {
		return err
	}
	meta := types.MessageMeta{SessionID: string(q.sessionID)}
	if resp.Metadata != nil {
		meta.SessionID = resp.Metadata.SessionID
	}
	emit(types.NewAssistant(resp.Content, meta).TimeFilled())
	return nil
}

func (q *QueryBuilder) produceIncremental(ctx context.Context, cfg *types.Config, emit func(msg types.Message) bool) error {
	logger := q.client.logger
	decoder := NewEventDecoder(string(q.sessionID), logger)
	var readErr error
	stdout, wait := LinesWriter(func(line string) bool {
		for _, msg := range decoder.Decode(ctx, line) {
			if !emit(msg) {
				return false
			}
		}
		return true
	}, WithEndCallback(func(err error) {
		if err != nil {
			logger.Log(ctx, types.LogType_Error, "error reading stdout: %v", err)
			readErr = err
		}
	}))
	err := q.client.runner.Stream(ctx, q.command(cfg), cfg.Timeout(), stdout)
	wait()
	if skipped := decoder.Skipped(); skipped > 0 {
		logger.Log(ctx, types.LogType_Error, "skipped %d malformed lines", skipped)
	}
	if err == nil && readErr != nil {
		// the rest of stdout was discarded
		return &types.IOError{Op: "read stdout", Err: readErr}
	}
	return err
}
