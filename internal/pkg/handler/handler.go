// Package handler implements the per-stream session state machine of the
// server.
//
// A session moves AwaitFirst → AfterFirst → AfterSecond → Done. The first
// Context produces version 1 (with the understanding forced empty), the second
// produces version 2 and schedules version 3 after a fixed delay. Contexts
// after the second are never read.
package handler

import (
	"context"
	"io"
	"sync"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/checksum"
	"rankstream/internal/pkg/log"
	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/ranking"
	"rankstream/internal/pkg/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultDeferredDelay is the default delay before the final version is sent.
const DefaultDeferredDelay = 50 * time.Millisecond

// Stream is the server side of a Rank stream as seen by a Handler.
type Stream interface {
	Send(*rankpb.ResultSet) error
	Recv() (*rankpb.Context, error)
}

// Handler runs the protocol for a single stream.
type Handler struct {
	sessionID uint64
	requestID string
	engine    ranking.Engine
	delay     time.Duration
	metrics   *metrics.Server

	state    session.State
	contexts int
	start    time.Time
}

// Cfg configures a Handler.
type Cfg func(*Handler) error

// WithEngine sets the ranking engine.
func WithEngine(engine ranking.Engine) Cfg {
	return func(h *Handler) error {
		h.engine = engine
		return nil
	}
}

// WithDeferredDelay sets the delay between version 2 and version 3.
func WithDeferredDelay(d time.Duration) Cfg {
	return func(h *Handler) error {
		if d < 0 {
			return errors.Errorf("negative deferred delay %s", d)
		}
		h.delay = d
		return nil
	}
}

// WithSessionID sets the diagnostics session id.
func WithSessionID(id uint64) Cfg {
	return func(h *Handler) error {
		h.sessionID = id
		return nil
	}
}

// WithRequestID sets the client supplied request id.
func WithRequestID(id string) Cfg {
	return func(h *Handler) error {
		h.requestID = id
		return nil
	}
}

// WithMetrics sets the server metrics.
func WithMetrics(m *metrics.Server) Cfg {
	return func(h *Handler) error {
		h.metrics = m
		return nil
	}
}

// NewHandler creates a new Handler in state AwaitFirst.
func NewHandler(cfgs ...Cfg) (*Handler, error) {
	h := &Handler{
		delay: DefaultDeferredDelay,
		state: session.AwaitFirst,
	}
	for _, cfg := range cfgs {
		if err := cfg(h); err != nil {
			return nil, errors.Wrap(err, "apply handler cfg failed")
		}
	}
	if h.engine == nil {
		return nil, ErrMissingEngine
	}
	return h, nil
}

// State returns the handler's current state.
func (h *Handler) State() session.State {
	return h.state
}

func (h *Handler) log() logrus.FieldLogger {
	return logger.WithFields(logrus.Fields{
		"session_id": h.sessionID,
		"request_id": h.requestID,
	})
}

// lockedSender serialises writes to the stream, which is shared by the read
// loop and the deferred final send.
type lockedSender struct {
	mu     sync.Mutex
	stream Stream
}

func (s *lockedSender) Send(rs *rankpb.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.Send(rs)
}

// Run reads Contexts from the stream until the session reaches AfterSecond or
// the stream ends, then waits for the deferred final send before returning.
// A clean early close by the client is not an error.
func (h *Handler) Run(ctx context.Context, stream Stream) error {
	h.start = time.Now()
	out := &lockedSender{stream: stream}
	var final *session.Deferred

	for h.state != session.AfterSecond {
		msg, err := stream.Recv()
		if err == io.EOF {
			h.log().WithFields(logrus.Fields{
				"state":    h.state.String(),
				"contexts": h.contexts,
			}).Info("client closed stream early")
			break
		}
		if err != nil {
			return &Error{Reason: metrics.ReasonTransport, Err: errors.Wrap(err, "receive context failed")}
		}
		h.contexts++
		h.log().WithFields(log.ContextToFields(msg)).WithFields(logrus.Fields{
			"context_number":     h.contexts,
			"session_elapsed_ms": log.ElapsedMS(h.start),
		}).Info("received context")

		req := ranking.RequestFromContext(msg)
		if h.state == session.AwaitFirst {
			req.Understanding = ""
		}
		if err := h.respond(ctx, out, req, h.state.Version()); err != nil {
			return err
		}
		if h.state == session.AfterFirst {
			final = h.scheduleFinal(ctx, out, req)
		}
		h.state = h.state.Next()
	}

	if err := final.Wait(); err != nil {
		h.log().WithError(err).Debug("deferred result set was not delivered")
	}
	h.log().WithFields(logrus.Fields{
		"contexts_received":  h.contexts,
		"last_state":         h.state.String(),
		"session_elapsed_ms": log.ElapsedMS(h.start),
	}).Info("session finished")
	h.state = session.Done
	return nil
}

// respond generates and sends one result set synchronously.
func (h *Handler) respond(ctx context.Context, out *lockedSender, req ranking.Request, version uint32) error {
	genStart := time.Now()
	rs, err := h.engine.Generate(ctx, req, version)
	if err != nil {
		return &Error{Reason: metrics.ReasonRanking, Err: errors.Wrapf(err, "generate version %d failed", version)}
	}
	if err := sendResultSet(h.log(), out, rs, genStart); err != nil {
		return &Error{Reason: metrics.ReasonSend, Err: errors.Wrapf(err, "send version %d failed", version)}
	}
	h.metrics.ResultSetSent(version)
	return nil
}

// scheduleFinal schedules the final version. The task gets its own copy of
// the request and of everything else it touches; its failures are logged and
// counted, never retried.
func (h *Handler) scheduleFinal(ctx context.Context, out *lockedSender, req ranking.Request) *session.Deferred {
	engine, m, delay, start := h.engine, h.metrics, h.delay, h.start
	taskLogger := h.log().WithField("version", ranking.MaxVersion)
	taskLogger.WithField("delay_ms", delay.Milliseconds()).Info("scheduling deferred result set")

	return session.Schedule(delay, func() error {
		genStart := time.Now()
		rs, err := engine.Generate(ctx, req, ranking.MaxVersion)
		if err != nil {
			m.DeferredFailed()
			taskLogger.WithError(err).Warn("generate deferred result set failed")
			return errors.Wrap(err, "generate deferred result set failed")
		}
		if err := sendResultSet(taskLogger, out, rs, genStart); err != nil {
			m.DeferredFailed()
			taskLogger.WithError(err).Warn("send deferred result set failed")
			return errors.Wrap(err, "send deferred result set failed")
		}
		m.ResultSetSent(rs.Version)
		taskLogger.WithFields(log.ResultSetToFields(rs)).
			WithField("session_elapsed_ms", log.ElapsedMS(start)).
			Info("sent deferred result set")
		return nil
	})
}

// sendResultSet logs rs with its checksum and writes it to out.
func sendResultSet(l logrus.FieldLogger, out *lockedSender, rs *rankpb.ResultSet, genStart time.Time) error {
	sendLogger := l.WithFields(log.ResultSetToFields(rs)).WithField("generation_ms", log.ElapsedMS(genStart))
	if sum, err := checksum.Sum(rs); err == nil {
		sendLogger = sendLogger.WithField("checksum", sum)
	}
	sendLogger.Info("sending result set")
	for _, fields := range log.ItemsToFields(rs) {
		l.WithFields(fields).Debug("generated item")
	}
	return out.Send(rs)
}
