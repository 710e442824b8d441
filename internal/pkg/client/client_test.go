package client

import (
	"context"
	"io"
	"testing"
	"time"

	"rankstream/api/rankpb"
	"rankstream/api/rankpb/mocks"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeRankingClient struct {
	stream rankpb.Ranking_RankClient
	err    error
}

func (f *fakeRankingClient) Rank(context.Context, ...grpc.CallOption) (rankpb.Ranking_RankClient, error) {
	return f.stream, f.err
}

func isContext(understanding string) interface{} {
	return mock.MatchedBy(func(msg *rankpb.Context) bool {
		return msg.Query == "coffee maker" && msg.ItemID == "B000123456" && msg.Understanding == understanding
	})
}

func TestRequestRankedResultsOutOfOrder(t *testing.T) {
	c, err := NewClient(WithCutover(time.Second), WithSendDelay(time.Millisecond))
	require.NoError(t, err)
	stream := mocks.NewRanking_RankClient(t)
	c.rpc = &fakeRankingClient{stream: stream}

	stream.On("Send", isContext("")).Return(nil).Once()
	stream.On("Send", isContext("espresso")).Return(nil).Once()
	stream.On("CloseSend").Return(nil).Once()
	stream.On("Recv").Return(resultSet(2, "b"), nil).Once()
	stream.On("Recv").Return(resultSet(1, "a"), nil).Once()
	stream.On("Recv").Return(nil, io.EOF).Once()

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.NoError(t, err)
	require.Equal(t, uint32(2), got.Version)
}

func TestRequestRankedResultsSendFailure(t *testing.T) {
	c, err := NewClient(WithCutover(time.Second))
	require.NoError(t, err)
	stream := mocks.NewRanking_RankClient(t)
	c.rpc = &fakeRankingClient{stream: stream}

	errBroken := errors.New("broken pipe")
	stream.On("Send", isContext("")).Return(errBroken).Once()
	stream.On("Recv").Return(resultSet(1, "a"), nil).Once()
	stream.On("Recv").Return(nil, io.EOF).Once()

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.ErrorIs(t, err, errBroken)
	require.NotNil(t, got)
	require.Equal(t, uint32(1), got.Version, "collector keeps running when sending fails")
	stream.AssertNumberOfCalls(t, "Send", 1)
	stream.AssertNotCalled(t, "CloseSend")
}

func TestRequestRankedResultsServerFailureAfterFirstVersion(t *testing.T) {
	c, err := NewClient(WithCutover(time.Second), WithSendDelay(time.Millisecond))
	require.NoError(t, err)
	stream := mocks.NewRanking_RankClient(t)
	c.rpc = &fakeRankingClient{stream: stream}

	stream.On("Send", isContext("")).Return(nil).Once()
	stream.On("Send", isContext("espresso")).Return(nil).Once()
	stream.On("CloseSend").Return(nil).Once()
	stream.On("Recv").Return(resultSet(1, "a"), nil).Once()
	stream.On("Recv").Return(nil, status.Error(codes.Internal, "generate version 2 failed")).Once()

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, uint32(1), got.Version)
}

// io.EOF from Send means the server already ended the stream; the status
// comes from the receiving side.
func TestRequestRankedResultsSendEOFReportsStreamStatus(t *testing.T) {
	c, err := NewClient(WithCutover(time.Second))
	require.NoError(t, err)
	stream := mocks.NewRanking_RankClient(t)
	c.rpc = &fakeRankingClient{stream: stream}

	stream.On("Send", isContext("")).Return(io.EOF).Once()
	stream.On("Recv").Return(nil, status.Error(codes.Internal, "generate version 1 failed")).Once()

	got, err := c.RequestRankedResults(context.Background(), "coffee maker", "B000123456", "espresso")
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "send")
	require.True(t, got.IsEmpty())
	stream.AssertNumberOfCalls(t, "Send", 1)
	stream.AssertNotCalled(t, "CloseSend")
}

func TestRequestRankedResultsOpenFailure(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	c.rpc = &fakeRankingClient{err: errors.New("unavailable")}
	_, err = c.RequestRankedResults(context.Background(), "q", "i", "")
	require.Error(t, err)
}

func TestRequestRankedResultsNotConnected(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	_, err = c.RequestRankedResults(context.Background(), "q", "i", "")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDrawCutover(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	seen := make(map[time.Duration]bool)
	for i := 0; i < 2000; i++ {
		d := c.cutover()
		require.GreaterOrEqual(t, d, DefaultCutoverMin)
		require.LessOrEqual(t, d, DefaultCutoverMax)
		require.Zero(t, d%time.Millisecond)
		seen[d] = true
	}
	require.Greater(t, len(seen), 1)

	c, err = NewClient(WithCutoverRange(5*time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 5*time.Millisecond, c.cutover())

	_, err = NewClient(WithCutoverRange(time.Second, time.Millisecond))
	require.ErrorIs(t, err, ErrInvalidCutoverRange)

	c, err = NewClient(WithCutover(200 * time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 200*time.Millisecond, c.cutover())
}
