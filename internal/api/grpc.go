package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/score"
)

const RankingServiceName = "standings.v1.RankingService"

// RankingServiceServer exchanges google.protobuf.Struct messages shaped like the HTTP JSON bodies.
type RankingServiceServer interface {
	ListRankings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRanking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DecodeScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var rankingServiceDesc = grpc.ServiceDesc{
	ServiceName: RankingServiceName,
	HandlerType: (*RankingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRankings", Handler: unaryHandler("ListRankings", RankingServiceServer.ListRankings)},
		{MethodName: "GetRanking", Handler: unaryHandler("GetRanking", RankingServiceServer.GetRanking)},
		{MethodName: "DecodeScore", Handler: unaryHandler("DecodeScore", RankingServiceServer.DecodeScore)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "standings/v1/ranking.proto",
}

type rpc func(srv RankingServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call rpc) grpc.MethodHandler {
	info := &grpc.UnaryServerInfo{FullMethod: "/" + RankingServiceName + "/" + method}

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(RankingServiceServer), ctx, in)
		}

		i := *info
		i.Server = srv
		return interceptor(ctx, in, &i, func(ctx context.Context, req any) (any, error) {
			return call(srv.(RankingServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}

type viewerMessage struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	At     string `json:"at"`
}

type listRankingsMessage struct {
	ContestID string        `json:"contest_id"`
	Viewer    viewerMessage `json:"viewer"`
}

type getRankingMessage struct {
	ContestID string        `json:"contest_id"`
	Key       string        `json:"key"`
	Viewer    viewerMessage `json:"viewer"`
}

type decodeScoreMessage struct {
	Repr string `json:"repr"`
}

func (a *API) ListRankings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listRankingsMessage
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	v, err := newViewer(in.Viewer.UserID, in.Viewer.Role, in.Viewer.At, a.now())
	if err != nil {
		return nil, err
	}

	es, err := a.rs.ListRankings(ctx, ranking.ListRankingsRequest{ContestID: in.ContestID, Viewer: v})
	if err != nil {
		return nil, toAPIError(ctx, err)
	}

	return toStruct(map[string]any{"rankings": newEntries(es)})
}

func (a *API) GetRanking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in getRankingMessage
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	if in.Key == "" {
		in.Key = ranking.ContestKey
	}

	v, err := newViewer(in.Viewer.UserID, in.Viewer.Role, in.Viewer.At, a.now())
	if err != nil {
		return nil, err
	}

	r, err := a.rs.GetRanking(ctx, ranking.GetRankingRequest{ContestID: in.ContestID, Key: in.Key, Viewer: v})
	if err != nil {
		return nil, toAPIError(ctx, err)
	}

	return toStruct(newRanking(in.ContestID, r))
}

func (a *API) DecodeScore(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in decodeScoreMessage
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}

	v, err := score.Decode(in.Repr)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("empty score"))
	}

	return toStruct(newScore(v))
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return errors.New(errors.CodeInvalidArgument, errors.WithCause(err))
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid request: %v", err))
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}

	s := new(structpb.Struct)
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return s, nil
}
