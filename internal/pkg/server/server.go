package server

import (
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/handler"
	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/ranking"
	"rankstream/internal/pkg/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultDeferredDelay is the delay before version 3 is sent, unless
// configured with WithDeferredDelay.
const DefaultDeferredDelay = handler.DefaultDeferredDelay

// Server implements the Ranking gRPC service.
type Server struct {
	engine        ranking.Engine
	deferredDelay time.Duration
	metrics       *metrics.Server
}

var _ rankpb.RankingServer = (*Server)(nil)

// Cfg configures a Server.
type Cfg func(*Server) error

// WithEngine sets the ranking engine used by every session.
func WithEngine(engine ranking.Engine) Cfg {
	return func(s *Server) error {
		s.engine = engine
		return nil
	}
}

// WithDeferredDelay sets the delay before version 3 is sent.
func WithDeferredDelay(d time.Duration) Cfg {
	return func(s *Server) error {
		s.deferredDelay = d
		return nil
	}
}

// WithMetrics sets the server metrics.
func WithMetrics(m *metrics.Server) Cfg {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	server := &Server{
		engine:        ranking.NewHashEngine(),
		deferredDelay: DefaultDeferredDelay,
	}
	for _, cfg := range cfgs {
		if err := cfg(server); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	return server, nil
}

// Register registers the Ranking service on the given gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	rankpb.RegisterRankingServer(registrar, s)
}

// Rank implements the gRPC endpoint for the bidirectional ranking stream.
func (s *Server) Rank(stream rankpb.Ranking_RankServer) error {
	ctx := stream.Context()
	id := session.NextID()
	requestID := requestIDFromMetadata(metadata.ValueFromIncomingContext(ctx, rankpb.RequestIDHeader))
	done := s.metrics.SessionStarted()
	defer done()

	sessionLogger := logger.WithFields(logrus.Fields{
		"session_id": id,
		"request_id": requestID,
	})
	sessionLogger.Info("new stream opened")

	h, err := handler.NewHandler(
		handler.WithEngine(s.engine),
		handler.WithDeferredDelay(s.deferredDelay),
		handler.WithSessionID(id),
		handler.WithRequestID(requestID),
		handler.WithMetrics(s.metrics),
	)
	if err != nil {
		return status.Error(codes.Internal, errors.Wrap(err, "create handler failed").Error())
	}
	if err := h.Run(ctx, stream); err != nil {
		st := s.toStatus(err)
		sessionLogger.WithError(err).WithField("code", st.Code().String()).Warn("session failed")
		return st.Err()
	}
	return nil
}

func requestIDFromMetadata(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// toStatus maps a handler failure to the gRPC status reported to the client
// and records it in the metrics.
func (s *Server) toStatus(err error) *status.Status {
	var herr *handler.Error
	if !errors.As(err, &herr) {
		return status.New(codes.Internal, err.Error())
	}
	reason := herr.Reason
	s.metrics.SessionFailed(reason)
	code := codes.Internal
	switch reason {
	case metrics.ReasonTransport, metrics.ReasonSend:
		code = codes.Unavailable
		if st, ok := status.FromError(errors.Cause(herr.Err)); ok && st.Code() != codes.Unknown {
			code = st.Code()
		}
	case metrics.ReasonRanking:
		code = codes.Internal
	}
	return status.New(code, err.Error())
}
