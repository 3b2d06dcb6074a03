// Package api exposes rankings over HTTP and gRPC and pushes ranking changes to users over Redis pub/sub.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/event"
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/result"
)

type RankingService interface {
	ListRankings(ctx context.Context, req ranking.ListRankingsRequest) ([]ranking.Entry, error)
	GetRanking(ctx context.Context, req ranking.GetRankingRequest) (*ranking.Ranking, error)
}

type ResultService interface {
	RecordEvaluation(ctx context.Context, req result.RecordEvaluationRequest) (*result.RecordEvaluationResponse, error)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type Config struct {
	GRPC         *grpc.Server
	HTTP         gin.IRouter
	EventBus     *event.Bus
	Ranking      RankingService
	Result       ResultService
	Redis        Redis
	PubsubPrefix string
	Now          func() time.Time
}

type API struct {
	rs  RankingService
	res ResultService

	redis  Redis
	prefix string
	now    func() time.Time
}

func New(c Config) *API {
	a := &API{
		rs:     c.Ranking,
		res:    c.Result,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
		now:    c.Now,
	}
	if a.now == nil {
		a.now = time.Now
	}

	// gRPC APIs
	if c.GRPC != nil {
		c.GRPC.RegisterService(&rankingServiceDesc, a)
	}

	// HTTP APIs
	if c.HTTP != nil {
		a.registerRoutes(c.HTTP)
	}

	// Register event handlers
	if c.EventBus != nil && c.Redis != nil {
		c.EventBus.Subscribe(domain.EventNameRankingUpdated, event.Typed(a.PublishRankingUpdated))
	}

	return a
}

// toAPIError converts any error into a coded one, logging those that are not expected by clients.
func toAPIError(ctx context.Context, err error) *errors.Error {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(ctx, "api: request failed", "error", err)
	}
	return e
}
