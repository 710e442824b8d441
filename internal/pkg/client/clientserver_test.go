package client

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/ranking"
	"rankstream/internal/pkg/server"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, cfgs ...server.Cfg) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, err := server.NewServer(cfgs...)
	require.NoError(t, err)
	gs := grpc.NewServer()
	srv.Register(gs)
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)
	return lis
}

func connect(t *testing.T, lis *bufconn.Listener, cfgs ...Cfg) *Client {
	t.Helper()
	cfgs = append([]Cfg{
		WithServerAddr("passthrough:///bufnet"),
		WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})),
	}, cfgs...)
	c, err := NewClient(cfgs...)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

// captureLogs routes the client's logs to a test hook for the duration of the test.
func captureLogs(t *testing.T) *test.Hook {
	t.Helper()
	testLogger, hook := test.NewNullLogger()
	prev := logger
	logger = testLogger
	t.Cleanup(func() {
		logger = prev
	})
	return hook
}

func receivedVersions(hook *test.Hook) []uint32 {
	var out []uint32
	for _, entry := range hook.AllEntries() {
		if entry.Message != "received result set" {
			continue
		}
		out = append(out, entry.Data["version"].(uint32))
	}
	return out
}

// slowFirst delays version 1, so no result set can beat a short cutover.
func slowFirst(delay time.Duration) ranking.Engine {
	engine := ranking.NewHashEngine()
	return ranking.EngineFunc(func(ctx context.Context, req ranking.Request, version uint32) (*rankpb.ResultSet, error) {
		if version == 1 {
			time.Sleep(delay)
		}
		return engine.Generate(ctx, req, version)
	})
}

func TestAllVersionsBeforeLongCutover(t *testing.T) {
	hook := captureLogs(t)
	m := metrics.NewServer(prometheus.NewRegistry())
	lis := startServer(t, server.WithMetrics(m))
	c := connect(t, lis, WithCutover(200*time.Millisecond))

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.Version)
	require.Equal(t, []uint32{1, 2, 3}, receivedVersions(hook))
	for v := 1; v <= 3; v++ {
		require.Equal(t, 1.0, testutil.ToFloat64(m.ResultSetsSentTotal.WithLabelValues(strconv.Itoa(v))))
	}
}

func TestEmptyResultBeforeFirstVersion(t *testing.T) {
	lis := startServer(t, server.WithEngine(slowFirst(60*time.Millisecond)))
	c := connect(t, lis, WithCutover(10*time.Millisecond))

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
	require.Equal(t, uint32(0), got.Version)
	require.Empty(t, got.Items)
}

func TestFinalVersionTooLate(t *testing.T) {
	lis := startServer(t, server.WithDeferredDelay(400*time.Millisecond))
	c := connect(t, lis, WithCutover(200*time.Millisecond))

	got, err := c.RequestRankedResults(context.Background(), "headphones", "B0TESTID1", "wireless headphones")
	require.NoError(t, err)
	require.Equal(t, uint32(2), got.Version)
	require.GreaterOrEqual(t, len(got.Items), ranking.MinItems)
	require.LessOrEqual(t, len(got.Items), ranking.MaxItems)
	for _, item := range got.Items {
		require.GreaterOrEqual(t, item.Score, 0.0)
		require.LessOrEqual(t, item.Score, 1.0)
	}

	want, err := ranking.NewHashEngine().Generate(context.Background(), ranking.Request{
		Query:         "headphones",
		ItemID:        "B0TESTID1",
		Understanding: "wireless headphones",
	}, 2)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestClientMetricsRecorded(t *testing.T) {
	lis := startServer(t)
	m := metrics.NewClient(prometheus.NewRegistry())
	c := connect(t, lis, WithCutover(200*time.Millisecond), WithMetrics(m))

	_, err := c.RequestRankedResults(context.Background(), "lamp", "B0LAMP", "")
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.StatusSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SelectedVersionTotal.WithLabelValues("3")))
}

func failingAt(version uint32) ranking.Engine {
	engine := ranking.NewHashEngine()
	return ranking.EngineFunc(func(ctx context.Context, req ranking.Request, v uint32) (*rankpb.ResultSet, error) {
		if v == version {
			return nil, errors.New("model unavailable")
		}
		return engine.Generate(ctx, req, v)
	})
}

func TestServerRankingFailureOnFirstVersion(t *testing.T) {
	hook := captureLogs(t)
	lis := startServer(t, server.WithEngine(failingAt(1)))
	c := connect(t, lis, WithCutover(time.Second), WithSendDelay(5*time.Millisecond))

	got, err := c.RequestRankedResults(context.Background(), "q", "i", "u")
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
	require.True(t, got.IsEmpty())
	var sawStreamError bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "stream error" && entry.Level == logrus.WarnLevel {
			sawStreamError = true
		}
	}
	require.True(t, sawStreamError)
}

func TestServerRankingFailureOnSecondVersion(t *testing.T) {
	lis := startServer(t, server.WithEngine(failingAt(2)))
	m := metrics.NewClient(prometheus.NewRegistry())
	c := connect(t, lis, WithCutover(time.Second), WithSendDelay(5*time.Millisecond), WithMetrics(m))

	got, err := c.RequestRankedResults(context.Background(), "q", "i", "u")
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, uint32(1), got.Version)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.StatusError)))
}
