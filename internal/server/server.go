package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/standings/internal/api"
	"github.com/victornm/standings/internal/contest"
	"github.com/victornm/standings/internal/event"
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/result"
	"github.com/victornm/standings/internal/telemetry"
)

type RedisConfig struct {
	Addrs  []string
	Pass   string
	Prefix string
}

type PostgresConfig struct {
	Addr string
	User string
	Pass string
	Name string
}

type Config struct {
	Log telemetry.LogConfig

	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Redis struct {
		Ranking struct {
			RedisConfig `mapstructure:",squash"`
			TTL         time.Duration
		}

		Pubsub RedisConfig
	}

	Postgres struct {
		Contest PostgresConfig
		Result  PostgresConfig
	}

	Ranking struct {
		// IncludeStaff keeps staff members in the rankings. Superusers never appear.
		IncludeStaff bool
	}
}

// DefaultConfig is the configuration for a local setup.
func DefaultConfig() Config {
	var c Config
	c.Log.Format = "text"
	c.Log.Level = "info"
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Redis.Ranking.Addrs = []string{"localhost:6379"}
	c.Redis.Ranking.Prefix = "local:ranking"
	c.Redis.Ranking.TTL = 10 * time.Minute
	c.Redis.Pubsub.Addrs = []string{"localhost:6379"}
	c.Redis.Pubsub.Prefix = "local:pubsub"
	c.Postgres.Contest = PostgresConfig{Addr: "localhost:5432", User: "postgres", Pass: "postgres", Name: "standings"}
	c.Postgres.Result = c.Postgres.Contest
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			ranking redis.UniversalClient
			pubsub  redis.UniversalClient
		}

		postgres struct {
			contest *pgxpool.Pool
			result  *pgxpool.Pool
		}
	}

	service struct {
		contest *contest.Service
		result  *result.Service
		ranking *ranking.Service
	}

	health *health.Server
	http   *http.Server
	grpc   *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, c RedisConfig) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    c.Addrs,
			Password: c.Pass,
		})

		if err := telemetry.MonitorRedis(r, name); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.ranking, err = connect("ranking", s.c.Redis.Ranking.RedisConfig)
	if err != nil {
		return fmt.Errorf("ranking: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(c PostgresConfig) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", c.User, c.Pass, c.Addr, c.Name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	s.infra.postgres.contest, err = connect(s.c.Postgres.Contest)
	if err != nil {
		return fmt.Errorf("contest: %w", err)
	}

	s.infra.postgres.result, err = connect(s.c.Postgres.Result)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	return nil
}

func (s *Server) initService() {
	s.service.contest = contest.NewService(contest.Config{
		DB: s.infra.postgres.contest,
	})

	s.service.result = result.NewService(result.Config{
		EventBus: s.eb,
		DB:       s.infra.postgres.result,
		Problems: s.service.contest,
	})

	users := ranking.ContestantsOnly
	if s.c.Ranking.IncludeStaff {
		users = ranking.NoSuperusers
	}

	s.service.ranking = ranking.NewService(ranking.Config{
		EventBus: s.eb,
		Contests: s.service.contest,
		Results:  s.service.result,
		Redis:    s.infra.redis.ranking,
		Prefix:   s.c.Redis.Ranking.Prefix,
		TTL:      s.c.Redis.Ranking.TTL,
		Controller: ranking.ControllerConfig{
			Users: users,
		},
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())

	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	api.New(api.Config{
		GRPC:         s.grpc,
		HTTP:         e,
		EventBus:     s.eb,
		Ranking:      s.service.ranking,
		Result:       s.service.result,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// Start serves gRPC and HTTP until both stop. It returns the first serving error.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		return fmt.Errorf("grpc server: listen: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(api.RankingServiceName, healthpb.HealthCheckResponse_SERVING)

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
		return err
	}
	return nil
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	s.infra.postgres.contest.Close()
	s.infra.postgres.result.Close()
	for name, r := range map[string]redis.UniversalClient{"ranking": s.infra.redis.ranking, "pubsub": s.infra.redis.pubsub} {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "name", name, "error", err)
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
