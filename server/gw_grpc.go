package server

import (
	"context"
	"encoding/json"
	"net"

	"github.com/undeconstructed/machi/machi"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// RoomServer is the gRPC face of a room. Requests and state go as
// structpb.Struct, in the same shape as the JSON everywhere else.
type RoomServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Leave(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Dispatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func runGRPCGateway(ctx context.Context, server *Server, addr string) error {
	log := log.With().Str("gw", "grpc").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("grpc listening on %v", ln.Addr())

	srv := grpc.NewServer()
	RegisterRoomServer(srv, newGRPCRoom(server, log))

	go func() {
		<-ctx.Done()
		srv.Stop()
	}()

	return srv.Serve(ln)
}

type grpcRoom struct {
	server *Server
	log    zerolog.Logger
}

func newGRPCRoom(server *Server, log zerolog.Logger) *grpcRoom {
	return &grpcRoom{server: server, log: log}
}

func (g *grpcRoom) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return WrapGameState(g.server.State())
}

// Join connects a user with no pushed updates, the reply holds the id that
// Leave needs.
func (g *grpcRoom) Join(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	user := in.GetFields()["user"].GetStringValue()
	connID, err := g.server.Connect(user, nil)
	if err != nil {
		return nil, statusError(err)
	}
	g.log.Info().Str("user", user).Msg("joined")
	return structpb.NewStruct(map[string]interface{}{"conn": connID})
}

func (g *grpcRoom) Leave(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	connID := in.GetFields()["conn"].GetStringValue()
	if connID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing conn")
	}
	g.server.Disconnect(connID)
	return &emptypb.Empty{}, nil
}

func (g *grpcRoom) Dispatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	user := in.GetFields()["user"].GetStringValue()

	a, err := UnwrapPlayerAction(in)
	if err != nil {
		return nil, statusError(err)
	}

	state, err := g.server.Dispatch(user, a)
	if err != nil {
		return nil, statusError(err)
	}

	return WrapGameState(state)
}

func statusError(err error) error {
	switch err {
	case machi.ErrBadRoll, machi.ErrBadRequest, machi.ErrUnknownAction:
		return status.Error(codes.InvalidArgument, err.Error())
	case machi.ErrNotInRoom:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

// ReStatus turns a status from the room back into a game error.
func ReStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, ge := range []error{machi.ErrBadRoll, machi.ErrBadRequest, machi.ErrUnknownAction, machi.ErrNotInRoom} {
		if st.Message() == ge.Error() {
			return ge
		}
	}
	return err
}

// WrapGameState turns a state into a struct, via JSON.
func WrapGameState(in machi.GameState) (*structpb.Struct, error) {
	bs, err := json.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	return structpb.NewStruct(m)
}

// UnwrapGameState is the other way.
func UnwrapGameState(in *structpb.Struct) (machi.GameState, error) {
	var out machi.GameState
	bs, err := in.MarshalJSON()
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(bs, &out)
	return out, err
}

// UnwrapPlayerAction reads the action out of a dispatch request.
func UnwrapPlayerAction(in *structpb.Struct) (machi.PlayerAction, error) {
	bs, err := in.MarshalJSON()
	if err != nil {
		return machi.PlayerAction{}, machi.ErrBadRequest
	}
	return machi.ParsePlayerAction(bs)
}

// WrapPlayerAction makes a dispatch request.
func WrapPlayerAction(user string, a machi.PlayerAction) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"user": user,
		"type": string(a.Type),
	}
	if a.Roll != nil {
		m["roll"] = *a.Roll
	}
	if a.BuildingID != "" {
		m["buildingId"] = a.BuildingID
	}
	return structpb.NewStruct(m)
}

func RegisterRoomServer(s *grpc.Server, srv RoomServer) {
	s.RegisterService(&roomServiceDesc, srv)
}

var roomServiceDesc = grpc.ServiceDesc{
	ServiceName: "machi.Room",
	HandlerType: (*RoomServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: roomGetStateHandler},
		{MethodName: "Join", Handler: roomJoinHandler},
		{MethodName: "Leave", Handler: roomLeaveHandler},
		{MethodName: "Dispatch", Handler: roomDispatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "machi/room",
}

func roomGetStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/machi.Room/GetState"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoomServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func roomJoinHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServer).Join(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/machi.Room/Join"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoomServer).Join(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func roomLeaveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServer).Leave(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/machi.Room/Leave"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoomServer).Leave(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func roomDispatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoomServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/machi.Room/Dispatch"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoomServer).Dispatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RoomClient calls a room over gRPC.
type RoomClient struct {
	cc grpc.ClientConnInterface
}

func NewRoomClient(cc grpc.ClientConnInterface) *RoomClient {
	return &RoomClient{cc: cc}
}

func (c *RoomClient) GetState(ctx context.Context) (machi.GameState, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/machi.Room/GetState", &emptypb.Empty{}, out)
	if err != nil {
		return machi.GameState{}, ReStatus(err)
	}
	return UnwrapGameState(out)
}

func (c *RoomClient) Join(ctx context.Context, user string) (string, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"user": user})
	if err != nil {
		return "", err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/machi.Room/Join", in, out); err != nil {
		return "", ReStatus(err)
	}
	return out.GetFields()["conn"].GetStringValue(), nil
}

func (c *RoomClient) Leave(ctx context.Context, connID string) error {
	in, err := structpb.NewStruct(map[string]interface{}{"conn": connID})
	if err != nil {
		return err
	}
	return ReStatus(c.cc.Invoke(ctx, "/machi.Room/Leave", in, new(emptypb.Empty)))
}

func (c *RoomClient) Dispatch(ctx context.Context, user string, a machi.PlayerAction) (machi.GameState, error) {
	in, err := WrapPlayerAction(user, a)
	if err != nil {
		return machi.GameState{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/machi.Room/Dispatch", in, out); err != nil {
		return machi.GameState{}, ReStatus(err)
	}
	return UnwrapGameState(out)
}
