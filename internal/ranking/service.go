package ranking

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/event"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/telemetry"
)

const (
	publishInterval = 200 * time.Millisecond
	defaultCacheTTL = time.Minute
	scanCount       = 100
)

// ContestStore reads the contest data rankings are built from.
type ContestStore interface {
	GetContest(ctx context.Context, contestID string) (*domain.Contest, error)
	ListRounds(ctx context.Context, contestID string) ([]domain.Round, error)
	ListProblemInstances(ctx context.Context, contestID string) ([]domain.ProblemInstance, error)
	ListUsers(ctx context.Context, contestID string) ([]domain.User, error)
}

type ResultStore interface {
	ListResults(ctx context.Context, contestID string) ([]domain.Result, error)
}

type Config struct {
	EventBus   *event.Bus
	Contests   ContestStore
	Results    ResultStore
	Redis      redis.UniversalClient
	Prefix     string
	TTL        time.Duration
	Controller ControllerConfig
	Now        func() time.Time
}

// Service serves rankings of stored contests. Computed rankings are cached in Redis until a result of the
// contest changes.
type Service struct {
	eb       *event.Bus
	contests ContestStore
	results  ResultStore
	redis    redis.UniversalClient
	prefix   string
	ttl      time.Duration
	now      func() time.Time

	ctrl    *Controller
	acmCtrl *Controller
}

func NewService(c Config) *Service {
	s := &Service{
		eb:       c.EventBus,
		contests: c.Contests,
		results:  c.Results,
		redis:    c.Redis,
		prefix:   c.Prefix,
		ttl:      c.TTL,
		now:      c.Now,
	}

	if s.ttl <= 0 {
		s.ttl = defaultCacheTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.ctrl = NewController(c.Controller)
	acm := c.Controller
	if acm.Visibility == nil {
		acm.Visibility = RoundStarted{}
	}
	s.acmCtrl = NewController(acm)

	s.eb.Subscribe(domain.EventNameResultUpdated, event.Typed(s.RefreshRanking))

	return s
}

func (s *Service) controller(kind score.Kind) *Controller {
	if kind == score.KindACM {
		return s.acmCtrl
	}
	return s.ctrl
}

type ListRankingsRequest struct {
	ContestID string
	Viewer    domain.Viewer
}

func (s *Service) ListRankings(ctx context.Context, req ListRankingsRequest) ([]Entry, error) {
	c, rounds, err := s.loadRounds(ctx, req.ContestID)
	if err != nil {
		return nil, err
	}

	return s.controller(c.ScoreKind).AvailableRankings(req.Viewer, rounds), nil
}

type GetRankingRequest struct {
	ContestID string
	Key       string
	Viewer    domain.Viewer
}

// GetRanking returns the ranking identified by the key as seen by the viewer.
func (s *Service) GetRanking(ctx context.Context, req GetRankingRequest) (*Ranking, error) {
	start := time.Now()
	cached := false
	defer func() {
		telemetry.RankingDuration.WithLabelValues(strconv.FormatBool(cached)).Observe(time.Since(start).Seconds())
	}()

	c, rounds, err := s.loadRounds(ctx, req.ContestID)
	if err != nil {
		return nil, err
	}
	ctrl := s.controller(c.ScoreKind)

	// The generation is read before the snapshot: a ranking computed from data older than the last
	// invalidation is stored under a generation nobody reads anymore.
	gen, err := s.getGeneration(ctx, req.ContestID)
	useCache := err == nil
	if !useCache {
		slog.WarnContext(ctx, "ranking: read generation failed", "contest", req.ContestID, "error", err)
	}

	key := s.getRankingKey(req.ContestID, gen, req.Key, ctrl.audience(req.Viewer, rounds))
	if useCache {
		if r, ok := s.getCached(ctx, key); ok {
			cached = true
			return r, nil
		}
	}

	snap := Snapshot{Rounds: rounds}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		snap.ProblemInstances, err = s.contests.ListProblemInstances(egCtx, req.ContestID)
		return err
	})
	eg.Go(func() (err error) {
		snap.Users, err = s.contests.ListUsers(egCtx, req.ContestID)
		return err
	})
	eg.Go(func() (err error) {
		snap.Results, err = s.results.ListResults(egCtx, req.ContestID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("load snapshot: contest=%s: %w", req.ContestID, err)
	}

	r, err := ctrl.SerializeRanking(req.Viewer, snap, req.Key)
	if err != nil {
		return nil, err
	}
	telemetry.RankingRows.Observe(float64(len(r.Rows)))

	if useCache {
		s.setCached(ctx, key, r)
	}
	return r, nil
}

func (s *Service) loadRounds(ctx context.Context, contestID string) (*domain.Contest, []domain.Round, error) {
	var (
		c      *domain.Contest
		rounds []domain.Round
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		c, err = s.contests.GetContest(egCtx, contestID)
		return err
	})
	eg.Go(func() (err error) {
		rounds, err = s.contests.ListRounds(egCtx, contestID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return c, rounds, nil
}

// RefreshRanking drops the cached rankings of the contest and schedules a publication of its new ranking.
func (s *Service) RefreshRanking(ctx context.Context, e domain.EventResultUpdated) error {
	if err := s.Invalidate(ctx, e.ContestID); err != nil {
		return err
	}

	return s.schedulePublishRanking(ctx, e.ContestID)
}

// Invalidate moves the contest to a new cache generation and deletes the cached rankings of the older ones.
func (s *Service) Invalidate(ctx context.Context, contestID string) error {
	if err := s.redis.Incr(ctx, s.getGenerationKey(contestID)).Err(); err != nil {
		return fmt.Errorf("incr generation: contest=%s: %w", contestID, err)
	}

	var keys []string
	iter := s.redis.Scan(ctx, 0, s.getRankingKey(contestID, "*", "*", "*"), scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan rankings: contest=%s: %w", contestID, err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete rankings: contest=%s: %w", contestID, err)
	}
	return nil
}

// schedulePublishRanking publishes the public contest ranking at most once per publish interval, however many
// results change in between and however many instances of the service receive the changes.
func (s *Service) schedulePublishRanking(ctx context.Context, contestID string) error {
	now := s.now()
	ok, err := s.redis.SetNX(ctx, s.getRankingTimeKey(contestID), now.UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		return nil
	}

	return s.publishRanking(ctx, contestID, now)
}

func (s *Service) publishRanking(ctx context.Context, contestID string, now time.Time) error {
	r, err := s.GetRanking(ctx, GetRankingRequest{
		ContestID: contestID,
		Key:       ContestKey,
		Viewer:    domain.Viewer{Timestamp: now},
	})
	if err != nil {
		return fmt.Errorf("get ranking failed: contest=%s: %w", contestID, err)
	}

	s.eb.Publish(ctx, domain.EventRankingUpdated{
		Standings: r.Standings(contestID),
	})

	return s.redis.Set(ctx, s.getRankingTimeKey(contestID), now.UnixMilli(), publishInterval).Err()
}

// Standings flattens the ranking for notifications.
func (r *Ranking) Standings(contestID string) domain.Standings {
	st := domain.Standings{
		ContestID: contestID,
		Key:       r.Key,
		Frozen:    r.Frozen,
		Entries:   make([]domain.StandingsEntry, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		st.Entries = append(st.Entries, domain.StandingsEntry{
			Place:    row.Place,
			Username: row.User.Username,
			Score:    row.Sum.String(),
		})
	}
	return st
}

// audience identifies the viewers that get the same ranking out of the same data: those who see everything,
// and otherwise those who see the same rounds with the same frozen windows.
func (c *Controller) audience(v domain.Viewer, rounds []domain.Round) string {
	if v.CanSeeAll() {
		return "staff"
	}

	visible := c.roundsForRanking(v, rounds, ContestKey)
	ids := make([]string, 0, len(visible))
	for _, r := range visible {
		ids = append(ids, r.RoundID)
	}

	frozen := make([]string, 0)
	for id := range c.freezeTimes(v, visible) {
		frozen = append(frozen, id)
	}
	slices.Sort(frozen)

	return "public@" + strings.Join(ids, ",") + "|" + strings.Join(frozen, ",")
}

func (s *Service) getCached(ctx context.Context, key string) (*Ranking, bool) {
	b, err := s.redis.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "ranking: read cache failed", "key", key, "error", err)
		return nil, false
	}

	var cr cachedRanking
	if err := json.Unmarshal(b, &cr); err != nil {
		slog.WarnContext(ctx, "ranking: unmarshal cache failed", "key", key, "error", err)
		return nil, false
	}

	r, err := cr.ranking()
	if err != nil {
		telemetry.ScoreDecodeErrors.Inc()
		slog.WarnContext(ctx, "ranking: decode cache failed", "key", key, "error", err)
		return nil, false
	}
	return r, true
}

func (s *Service) setCached(ctx context.Context, key string, r *Ranking) {
	b, err := json.Marshal(newCachedRanking(r))
	if err != nil {
		slog.WarnContext(ctx, "ranking: marshal cache failed", "key", key, "error", err)
		return
	}

	if err := s.redis.Set(ctx, key, b, s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "ranking: write cache failed", "key", key, "error", err)
	}
}

func (s *Service) getGeneration(ctx context.Context, contestID string) (string, error) {
	gen, err := s.redis.Get(ctx, s.getGenerationKey(contestID)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (s *Service) getRankingKey(contestID, gen, key, audience string) string {
	return fmt.Sprintf("%s:%s:ranking:%s:%s:%s", s.prefix, contestID, gen, key, audience)
}

func (s *Service) getGenerationKey(contestID string) string {
	return fmt.Sprintf("%s:%s:gen", s.prefix, contestID)
}

func (s *Service) getRankingTimeKey(contestID string) string {
	return fmt.Sprintf("%s:%s:time", s.prefix, contestID)
}
