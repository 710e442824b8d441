package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/handler"
	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/ranking"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dial(t *testing.T, srv *Server) rankpb.RankingClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	srv.Register(gs)
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return rankpb.NewRankingClient(conn)
}

func recvAll(t *testing.T, stream rankpb.Ranking_RankClient) ([]uint32, error) {
	t.Helper()
	var versions []uint32
	for {
		rs, err := stream.Recv()
		if err == io.EOF {
			return versions, nil
		}
		if err != nil {
			return versions, err
		}
		versions = append(versions, rs.Version)
	}
}

func TestRankStreamsThreeVersions(t *testing.T) {
	m := metrics.NewServer(prometheus.NewRegistry())
	srv, err := NewServer(WithMetrics(m), WithDeferredDelay(10*time.Millisecond))
	require.NoError(t, err)
	rpc := dial(t, srv)

	ctx := metadata.AppendToOutgoingContext(context.Background(), rankpb.RequestIDHeader, "req-1")
	stream, err := rpc.Rank(ctx)
	require.NoError(t, err)
	for _, understanding := range []string{"", "espresso", "ignored third context"} {
		require.NoError(t, stream.Send(&rankpb.Context{Query: "coffee maker", ItemID: "B000123456", Understanding: understanding}))
	}
	require.NoError(t, stream.CloseSend())

	versions, err := recvAll(t, stream)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, versions)
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal))
	require.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestRankEarlyClose(t *testing.T) {
	srv, err := NewServer()
	require.NoError(t, err)
	stream, err := dial(t, srv).Rank(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&rankpb.Context{Query: "q", ItemID: "i"}))
	require.NoError(t, stream.CloseSend())

	versions, err := recvAll(t, stream)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, versions)
}

func TestRankRankingFailure(t *testing.T) {
	m := metrics.NewServer(prometheus.NewRegistry())
	failing := ranking.EngineFunc(func(context.Context, ranking.Request, uint32) (*rankpb.ResultSet, error) {
		return nil, errors.New("model unavailable")
	})
	srv, err := NewServer(WithMetrics(m), WithEngine(failing))
	require.NoError(t, err)
	stream, err := dial(t, srv).Rank(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&rankpb.Context{Query: "q", ItemID: "i"}))

	versions, err := recvAll(t, stream)
	require.Empty(t, versions)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionFailuresTotal.WithLabelValues(metrics.ReasonRanking)))
}

func TestToStatus(t *testing.T) {
	m := metrics.NewServer(prometheus.NewRegistry())
	srv, err := NewServer(WithMetrics(m))
	require.NoError(t, err)

	st := srv.toStatus(&handler.Error{Reason: metrics.ReasonRanking, Err: errors.New("model down")})
	require.Equal(t, codes.Internal, st.Code())

	canceled := errors.Wrap(status.Error(codes.Canceled, "context canceled"), "receive context failed")
	st = srv.toStatus(&handler.Error{Reason: metrics.ReasonTransport, Err: canceled})
	require.Equal(t, codes.Canceled, st.Code())

	st = srv.toStatus(&handler.Error{Reason: metrics.ReasonSend, Err: errors.New("broken pipe")})
	require.Equal(t, codes.Unavailable, st.Code())

	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionFailuresTotal.WithLabelValues(metrics.ReasonRanking)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionFailuresTotal.WithLabelValues(metrics.ReasonTransport)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionFailuresTotal.WithLabelValues(metrics.ReasonSend)))
}

func TestRequestIDFromMetadata(t *testing.T) {
	require.Empty(t, requestIDFromMetadata(nil))
	require.Equal(t, "a", requestIDFromMetadata([]string{"a", "b"}))
}

func TestNewServerDefaults(t *testing.T) {
	s, err := NewServer()
	require.NoError(t, err)
	require.Equal(t, DefaultDeferredDelay, s.deferredDelay)
	require.Equal(t, 50*time.Millisecond, s.deferredDelay)
	require.NotNil(t, s.engine)
}
