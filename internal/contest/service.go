// Package contest reads contests, their rounds, problem instances and participants from Postgres.
package contest

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/score"
)

type Config struct {
	DB *pgxpool.Pool
}

type Service struct {
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	return &Service{
		db: c.DB,
	}
}

func (s *Service) GetContest(ctx context.Context, contestID string) (*domain.Contest, error) {
	const stmt = `SELECT contest_id, name, score_kind FROM contests WHERE contest_id = $1;`

	var (
		c    domain.Contest
		kind string
	)
	err := s.db.QueryRow(ctx, stmt, contestID).Scan(&c.ContestID, &c.Name, &kind)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("contest not found: contest=%s", contestID))
	}
	if err != nil {
		return nil, fmt.Errorf("get contest: %w", err)
	}

	c.ScoreKind = score.Kind(kind)
	return &c, nil
}

// ListRounds returns the rounds of a contest in display order: by start date, then id.
func (s *Service) ListRounds(ctx context.Context, contestID string) ([]domain.Round, error) {
	const stmt = `
SELECT round_id, contest_id, name, is_trial, start_date, end_date, results_date, freeze_date
FROM rounds
WHERE contest_id = $1
ORDER BY start_date, round_id;`

	rows, err := s.db.Query(ctx, stmt, contestID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	rounds, err := pgx.CollectRows(rows, scanRound)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	return rounds, nil
}

func scanRound(r pgx.CollectableRow) (domain.Round, error) {
	var rd domain.Round
	err := r.Scan(&rd.RoundID, &rd.ContestID, &rd.Name, &rd.IsTrial,
		&rd.Times.Start, &rd.Times.End, &rd.Times.ResultsDate, &rd.Times.FreezeTime)
	return rd, err
}

func (s *Service) ListProblemInstances(ctx context.Context, contestID string) ([]domain.ProblemInstance, error) {
	const stmt = `
SELECT problem_instance_id, contest_id, round_id, short_name, name
FROM problem_instances
WHERE contest_id = $1
ORDER BY short_name, problem_instance_id;`

	rows, err := s.db.Query(ctx, stmt, contestID)
	if err != nil {
		return nil, fmt.Errorf("list problem instances: %w", err)
	}

	pis, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ProblemInstance, error) {
		var pi domain.ProblemInstance
		err := r.Scan(&pi.ProblemInstanceID, &pi.ContestID, &pi.RoundID, &pi.ShortName, &pi.Name)
		return pi, err
	})
	if err != nil {
		return nil, fmt.Errorf("list problem instances: %w", err)
	}

	return pis, nil
}

// ListUsers returns the users holding at least one result in the contest.
func (s *Service) ListUsers(ctx context.Context, contestID string) ([]domain.User, error) {
	const stmt = `
SELECT u.user_id, u.username, u.first_name, u.last_name, u.is_superuser, u.is_staff
FROM users u
WHERE EXISTS (
	SELECT 1
	FROM user_problem_results r
	JOIN problem_instances p ON p.problem_instance_id = r.problem_instance_id
	WHERE p.contest_id = $1 AND r.user_id = u.user_id
)
ORDER BY u.user_id;`

	rows, err := s.db.Query(ctx, stmt, contestID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		err := r.Scan(&u.UserID, &u.Username, &u.FirstName, &u.LastName, &u.IsSuperuser, &u.IsStaff)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// Problem is a problem instance together with the round and contest it belongs to.
type Problem struct {
	Contest  domain.Contest
	Round    domain.Round
	Instance domain.ProblemInstance
}

func (s *Service) GetProblem(ctx context.Context, problemInstanceID string) (*Problem, error) {
	const stmt = `
SELECT c.contest_id, c.name, c.score_kind,
	r.round_id, r.contest_id, r.name, r.is_trial, r.start_date, r.end_date, r.results_date, r.freeze_date,
	p.problem_instance_id, p.contest_id, p.round_id, p.short_name, p.name
FROM problem_instances p
JOIN rounds r ON r.round_id = p.round_id
JOIN contests c ON c.contest_id = p.contest_id
WHERE p.problem_instance_id = $1;`

	var (
		p    Problem
		kind string
	)
	err := s.db.QueryRow(ctx, stmt, problemInstanceID).Scan(
		&p.Contest.ContestID, &p.Contest.Name, &kind,
		&p.Round.RoundID, &p.Round.ContestID, &p.Round.Name, &p.Round.IsTrial,
		&p.Round.Times.Start, &p.Round.Times.End, &p.Round.Times.ResultsDate, &p.Round.Times.FreezeTime,
		&p.Instance.ProblemInstanceID, &p.Instance.ContestID, &p.Instance.RoundID, &p.Instance.ShortName, &p.Instance.Name,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("problem instance not found: problem_instance=%s", problemInstanceID))
	}
	if err != nil {
		return nil, fmt.Errorf("get problem: %w", err)
	}

	p.Contest.ScoreKind = score.Kind(kind)
	return &p, nil
}
