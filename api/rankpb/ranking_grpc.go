package rankpb

import (
	"context"

	"google.golang.org/grpc"
)

// RankingServiceName is the fully qualified gRPC service name.
const RankingServiceName = "rankstream.Ranking"

// Ranking_Rank_FullMethodName is the full method name of the Rank stream.
const Ranking_Rank_FullMethodName = "/rankstream.Ranking/Rank"

// RankingClient is the client API for the Ranking service.
type RankingClient interface {
	Rank(ctx context.Context, opts ...grpc.CallOption) (Ranking_RankClient, error)
}

type rankingClient struct {
	cc grpc.ClientConnInterface
}

// NewRankingClient creates a RankingClient on the given connection.
func NewRankingClient(cc grpc.ClientConnInterface) RankingClient {
	return &rankingClient{cc}
}

func (c *rankingClient) Rank(ctx context.Context, opts ...grpc.CallOption) (Ranking_RankClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &Ranking_ServiceDesc.Streams[0], Ranking_Rank_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &rankingRankClient{stream}, nil
}

// Ranking_RankClient is the client side of the Rank stream.
type Ranking_RankClient interface {
	Send(*Context) error
	Recv() (*ResultSet, error)
	grpc.ClientStream
}

type rankingRankClient struct {
	grpc.ClientStream
}

func (x *rankingRankClient) Send(m *Context) error {
	return x.ClientStream.SendMsg(m)
}

func (x *rankingRankClient) Recv() (*ResultSet, error) {
	m := new(ResultSet)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RankingServer is the server API for the Ranking service.
type RankingServer interface {
	Rank(Ranking_RankServer) error
}

// RegisterRankingServer registers srv with the gRPC service registrar.
func RegisterRankingServer(s grpc.ServiceRegistrar, srv RankingServer) {
	s.RegisterService(&Ranking_ServiceDesc, srv)
}

func _Ranking_Rank_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(RankingServer).Rank(&rankingRankServer{stream})
}

// Ranking_RankServer is the server side of the Rank stream.
type Ranking_RankServer interface {
	Send(*ResultSet) error
	Recv() (*Context, error)
	grpc.ServerStream
}

type rankingRankServer struct {
	grpc.ServerStream
}

func (x *rankingRankServer) Send(m *ResultSet) error {
	return x.ServerStream.SendMsg(m)
}

func (x *rankingRankServer) Recv() (*Context, error) {
	m := new(Context)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Ranking_ServiceDesc is the grpc.ServiceDesc for the Ranking service.
var Ranking_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RankingServiceName,
	HandlerType: (*RankingServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Rank",
			Handler:       _Ranking_Rank_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "api/proto/rankstream.proto",
}
