package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/log"
	"rankstream/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Defaults for the client timing.
const (
	DefaultSendDelay  = 50 * time.Millisecond
	DefaultCutoverMin = 30 * time.Millisecond
	DefaultCutoverMax = 120 * time.Millisecond
)

// Client implements the client behaviour of the rankstream protocol.
type Client struct {
	serverAddr string
	dialOpts   []grpc.DialOption
	callOpts   []grpc.CallOption

	sendDelay  time.Duration
	cutoverMin time.Duration
	cutoverMax time.Duration
	cutover    func() time.Duration
	metrics    *metrics.Client

	conn *grpc.ClientConn
	rpc  rankpb.RankingClient
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServerPort sets the server port to connect to on localhost.
func WithServerPort(p uint16) Cfg {
	return func(c *Client) error {
		c.serverAddr = fmt.Sprintf("localhost:%d", p)
		return nil
	}
}

// WithServerAddr sets the gRPC target to connect to.
func WithServerAddr(addr string) Cfg {
	return func(c *Client) error {
		c.serverAddr = addr
		return nil
	}
}

// WithDialOptions appends gRPC dial options used by Connect.
func WithDialOptions(opts ...grpc.DialOption) Cfg {
	return func(c *Client) error {
		c.dialOpts = append(c.dialOpts, opts...)
		return nil
	}
}

// WithCallOptions appends gRPC call options used when opening each stream.
func WithCallOptions(opts ...grpc.CallOption) Cfg {
	return func(c *Client) error {
		c.callOpts = append(c.callOpts, opts...)
		return nil
	}
}

// WithSendDelay sets the delay between the first and second Context.
func WithSendDelay(d time.Duration) Cfg {
	return func(c *Client) error {
		if d < 0 {
			return errors.Errorf("negative send delay %s", d)
		}
		c.sendDelay = d
		return nil
	}
}

// WithCutoverRange sets the inclusive range the cutover deadline is drawn from.
func WithCutoverRange(lo, hi time.Duration) Cfg {
	return func(c *Client) error {
		if lo < 0 || lo > hi {
			return errors.Wrapf(ErrInvalidCutoverRange, "[%s, %s]", lo, hi)
		}
		c.cutoverMin, c.cutoverMax = lo, hi
		return nil
	}
}

// WithCutover fixes the cutover deadline instead of drawing it at random.
func WithCutover(d time.Duration) Cfg {
	return func(c *Client) error {
		if d < 0 {
			return errors.Wrapf(ErrInvalidCutoverRange, "%s", d)
		}
		c.cutover = func() time.Duration { return d }
		return nil
	}
}

// WithMetrics sets the client metrics.
func WithMetrics(m *metrics.Client) Cfg {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	client := &Client{
		sendDelay:  DefaultSendDelay,
		cutoverMin: DefaultCutoverMin,
		cutoverMax: DefaultCutoverMax,
	}
	for _, cfg := range cfgs {
		if err := cfg(client); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if client.cutover == nil {
		client.cutover = client.drawCutover
	}
	return client, nil
}

// drawCutover draws a deadline uniformly from the cutover range, in whole
// milliseconds, both ends included.
func (c *Client) drawCutover() time.Duration {
	span := int64((c.cutoverMax - c.cutoverMin) / time.Millisecond)
	return c.cutoverMin + time.Duration(rand.Int64N(span+1))*time.Millisecond // nolint: gosec // we don't need high security here
}

// Connect establishes the connection to the server.
func (c *Client) Connect(_ context.Context) error {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return errors.Wrap(err, "close client connection failed")
		}
	}
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()), // TODO: use TLS
	}, c.dialOpts...)
	var err error
	c.conn, err = grpc.NewClient(c.serverAddr, opts...)
	if err != nil {
		return errors.Wrapf(err, "connect to %s failed", c.serverAddr)
	}
	c.rpc = rankpb.NewRankingClient(c.conn)
	return nil
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, "close client connection failed")
	}
	c.conn, c.rpc = nil, nil
	return nil
}

// RequestRankedResults runs one request over a new stream and returns the
// best result set available at cutover; EmptyResult if none arrived in time.
//
// Sending and collecting run concurrently. A send failure does not stop the
// collection: the collected result is returned together with the send error.
// Likewise, if the server ends the stream with a failed status, the result
// is returned together with that status error.
func (c *Client) RequestRankedResults(ctx context.Context, query, itemID, understanding string) (*rankpb.ResultSet, error) {
	if c.rpc == nil {
		return nil, ErrNotConnected
	}
	start := time.Now()
	requestID := uuid.New().String()
	reqLogger := logger.WithField("request_id", requestID)

	streamCtx, cancel := context.WithCancel(metadata.AppendToOutgoingContext(ctx, rankpb.RequestIDHeader, requestID))
	defer cancel()
	stream, err := c.rpc.Rank(streamCtx, c.callOpts...)
	if err != nil {
		c.metrics.Request(metrics.StatusError, 0)
		return nil, errors.Wrap(err, "open rank stream failed")
	}
	reqLogger.WithFields(logrus.Fields{
		"query":                  query,
		"item_id":                itemID,
		"understanding_provided": understanding != "",
	}).Info("starting bidirectional stream")

	arrivals := receive(stream)
	s := &sender{delay: c.sendDelay, log: reqLogger, start: start}
	var g errgroup.Group
	g.Go(func() error {
		return s.run(streamCtx, stream, query, itemID, understanding)
	})

	timeout := c.cutover()
	c.metrics.Cutover(timeout.Seconds())
	reqLogger.WithFields(logrus.Fields{
		"timeout_ms":     timeout.Milliseconds(),
		"min_timeout_ms": c.cutoverMin.Milliseconds(),
		"max_timeout_ms": c.cutoverMax.Milliseconds(),
	}).Info("drew cutover deadline")
	timer := time.NewTimer(timeout)
	result, streamErr := newCollector(reqLogger, start, timeout).collect(arrivals, timer.C)
	timer.Stop()

	sendErr := g.Wait()
	if sendErr != nil {
		// release the stream; the server will not get its remaining Contexts
		cancel()
	}
	if err := drain(arrivals); err != nil && streamErr == nil && sendErr == nil {
		streamErr = err
	}

	finalLogger := reqLogger.WithFields(logrus.Fields{
		"selected_version":  result.Version,
		"items":             len(result.Items),
		"timeout_ms":        timeout.Milliseconds(),
		"total_duration_ms": log.ElapsedMS(start),
	})
	if sendErr != nil {
		c.metrics.Request(metrics.StatusError, result.Version)
		finalLogger.WithError(sendErr).Error("request failed while sending contexts")
		return result, errors.Wrap(sendErr, "send contexts failed")
	}
	if streamErr != nil {
		c.metrics.Request(metrics.StatusError, result.Version)
		finalLogger.WithError(streamErr).Error("rank stream failed")
		return result, errors.Wrap(streamErr, "rank stream failed")
	}
	if result.IsEmpty() {
		c.metrics.Request(metrics.StatusEmpty, 0)
		finalLogger.Warn("no result set received before cutover")
		return result, nil
	}
	c.metrics.Request(metrics.StatusSuccess, result.Version)
	finalLogger.Info("selected result set")
	return result, nil
}
