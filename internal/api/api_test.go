package api_test

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/result"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/scoring"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type rankingService struct {
	mu      sync.Mutex
	viewers []domain.Viewer
	err     error
}

func (s *rankingService) record(v domain.Viewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewers = append(s.viewers, v)
	return s.err
}

func (s *rankingService) lastViewer() domain.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.viewers) == 0 {
		return domain.Viewer{}
	}
	return s.viewers[len(s.viewers)-1]
}

func (s *rankingService) ListRankings(_ context.Context, req ranking.ListRankingsRequest) ([]ranking.Entry, error) {
	if err := s.record(req.Viewer); err != nil {
		return nil, err
	}
	if req.ContestID != "c1" {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("contest not found: %s", req.ContestID))
	}

	return []ranking.Entry{
		{Key: ranking.ContestKey, Label: "Contest"},
		{Key: "r1", Label: "Round 1"},
	}, nil
}

func (s *rankingService) GetRanking(_ context.Context, req ranking.GetRankingRequest) (*ranking.Ranking, error) {
	if err := s.record(req.Viewer); err != nil {
		return nil, err
	}
	if req.Key != ranking.ContestKey && req.Key != "r1" {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("ranking not found: %s", req.Key))
	}

	return &ranking.Ranking{
		Key: req.Key,
		ProblemInstances: []domain.ProblemInstance{
			{ProblemInstanceID: "p1", RoundID: "r1", ShortName: "a", Name: "Apples"},
			{ProblemInstanceID: "p2", RoundID: "r1", ShortName: "b", Name: "Bananas"},
		},
		Rows: []ranking.Row{
			{
				Place: 1,
				User:  domain.User{UserID: "u2", Username: "bob", FirstName: "Bob", LastName: "Baker"},
				Results: []*domain.Result{
					{UserID: "u2", ProblemInstanceID: "p1", SubmissionID: "s2", Score: score.Integer(60), Status: domain.StatusOK},
					nil,
				},
				Sum: score.Integer(60),
			},
		},
	}, nil
}

type resultService struct {
	mu   sync.Mutex
	reqs []result.RecordEvaluationRequest
}

func (s *resultService) RecordEvaluation(_ context.Context, req result.RecordEvaluationRequest) (*result.RecordEvaluationResponse, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()

	if req.ProblemInstanceID == "missing" {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("problem instance not found"))
	}

	return &result.RecordEvaluationResponse{
		Submission: domain.Submission{
			SubmissionID:      "s1",
			UserID:            req.UserID,
			ProblemInstanceID: req.ProblemInstanceID,
			Score:             score.Integer(70),
			MaxScore:          score.Integer(100),
			Status:            domain.StatusWA,
		},
		Evaluation: scoring.Result{Score: 70, MaxScore: 100, Status: domain.StatusWA},
		Result: &domain.Result{
			UserID:            req.UserID,
			ProblemInstanceID: req.ProblemInstanceID,
			SubmissionID:      "s1",
			Score:             score.Integer(70),
			Status:            domain.StatusWA,
		},
	}, nil
}

type publisher struct {
	mu       sync.Mutex
	messages map[string][]string
	err      error
}

func (p *publisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return redis.NewIntResult(0, p.err)
	}
	if p.messages == nil {
		p.messages = make(map[string][]string)
	}
	p.messages[channel] = append(p.messages[channel], string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}
