// Package result stores evaluated submissions and keeps every user's per-problem result up to date.
package result

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/standings/internal/contest"
	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/event"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/scoring"
	"github.com/victornm/standings/internal/telemetry"
)

const codeUniqueViolation = "23505"

type ProblemGetter interface {
	GetProblem(ctx context.Context, problemInstanceID string) (*contest.Problem, error)
}

type Config struct {
	EventBus *event.Bus
	DB       *pgxpool.Pool
	Problems ProblemGetter
}

type Service struct {
	eb       *event.Bus
	db       *pgxpool.Pool
	problems ProblemGetter
}

func NewService(c Config) *Service {
	return &Service{
		eb:       c.EventBus,
		db:       c.DB,
		problems: c.Problems,
	}
}

type RecordEvaluationRequest struct {
	// SubmissionID is generated when empty.
	SubmissionID      string
	UserID            string
	ProblemInstanceID string
	Kind              domain.SubmissionKind
	SubmittedAt       time.Time
	Tests             []scoring.TestCase
	// Policy defaults to scoring.DefaultPolicy.
	Policy *scoring.Policy
}

type RecordEvaluationResponse struct {
	Submission domain.Submission
	Evaluation scoring.Result
	// Result is the user's result for the problem after the evaluation, nil when nothing counts yet.
	Result *domain.Result
}

// RecordEvaluation scores the tests of a judged submission, stores it and recomputes the user's result for the
// problem instance.
func (s *Service) RecordEvaluation(ctx context.Context, req RecordEvaluationRequest) (*RecordEvaluationResponse, error) {
	if req.UserID == "" || req.ProblemInstanceID == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("user and problem instance are required"))
	}
	if req.Kind == "" {
		req.Kind = domain.SubmissionKindNormal
	}
	if req.Kind != domain.SubmissionKindNormal && req.Kind != domain.SubmissionKindIgnored {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown submission kind %q", req.Kind))
	}
	if req.SubmissionID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate submission ID: %w", err)
		}
		req.SubmissionID = id.String()
	}

	p, err := s.problems.GetProblem(ctx, req.ProblemInstanceID)
	if err != nil {
		return nil, err
	}

	policy := scoring.DefaultPolicy
	if req.Policy != nil {
		policy = *req.Policy
	}
	ev, err := scoring.Evaluate(req.Tests, policy)
	if err != nil {
		return nil, err
	}

	got, possible, err := scoring.SubmissionScore(p.Contest.ScoreKind, ev)
	if err != nil {
		return nil, err
	}

	sub := domain.Submission{
		SubmissionID:      req.SubmissionID,
		ContestID:         p.Contest.ContestID,
		UserID:            req.UserID,
		ProblemInstanceID: req.ProblemInstanceID,
		Kind:              req.Kind,
		SubmittedAt:       req.SubmittedAt,
		Score:             got,
		MaxScore:          possible,
		Status:            ev.Status,
	}

	res, err := s.storeSubmission(ctx, p, sub)
	if err != nil {
		return nil, err
	}
	telemetry.Evaluations.WithLabelValues(string(ev.Status)).Inc()

	e := domain.EventResultUpdated{
		ContestID: p.Contest.ContestID,
		Result:    domain.Result{UserID: sub.UserID, ProblemInstanceID: sub.ProblemInstanceID},
	}
	if res != nil {
		e.Result = *res
	}
	s.eb.Publish(ctx, e)

	return &RecordEvaluationResponse{
		Submission: sub,
		Evaluation: ev,
		Result:     res,
	}, nil
}

func (s *Service) storeSubmission(ctx context.Context, p *contest.Problem, sub domain.Submission) (res *domain.Result, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		lockStmt = `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2));`
		insStmt  = `
INSERT INTO submissions (submission_id, contest_id, user_id, problem_instance_id, kind, submitted_at, score, max_score, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
		upsertStmt = `
INSERT INTO user_problem_results (user_id, problem_instance_id, submission_id, score, status, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, problem_instance_id) DO UPDATE
SET submission_id = EXCLUDED.submission_id, score = EXCLUDED.score, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at;`
		delStmt = `DELETE FROM user_problem_results WHERE user_id = $1 AND problem_instance_id = $2;`
	)

	// Serializes recomputations of the same user's result.
	if _, err = tx.Exec(ctx, lockStmt, sub.UserID, sub.ProblemInstanceID); err != nil {
		return nil, fmt.Errorf("lock result: %w", err)
	}

	_, err = tx.Exec(ctx, insStmt, sub.SubmissionID, sub.ContestID, sub.UserID, sub.ProblemInstanceID, sub.Kind,
		sub.SubmittedAt, score.Column{Score: sub.Score}, score.Column{Score: sub.MaxScore}, sub.Status)

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return nil, errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("submission is already recorded: submission=%s", sub.SubmissionID),
			errors.WithCause(err))
	}
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	subs, err := listSubmissions(ctx, tx, sub.UserID, sub.ProblemInstanceID)
	if err != nil {
		return nil, err
	}

	res, err = ProblemResult(p.Contest.ScoreKind, p.Round, subs)
	if err != nil {
		return nil, err
	}

	if res == nil {
		_, err = tx.Exec(ctx, delStmt, sub.UserID, sub.ProblemInstanceID)
	} else {
		_, err = tx.Exec(ctx, upsertStmt, res.UserID, res.ProblemInstanceID, res.SubmissionID,
			score.Column{Score: res.Score}, res.Status, res.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	return res, tx.Commit(ctx)
}

type ListSubmissionsRequest struct {
	UserID            string
	ProblemInstanceID string
}

func (s *Service) ListSubmissions(ctx context.Context, req ListSubmissionsRequest) ([]domain.Submission, error) {
	return listSubmissions(ctx, s.db, req.UserID, req.ProblemInstanceID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listSubmissions(ctx context.Context, q querier, userID, problemInstanceID string) ([]domain.Submission, error) {
	const stmt = `
SELECT submission_id, contest_id, user_id, problem_instance_id, kind, submitted_at, score, max_score, status
FROM submissions
WHERE user_id = $1 AND problem_instance_id = $2
ORDER BY submitted_at, submission_id;`

	rows, err := q.Query(ctx, stmt, userID, problemInstanceID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	subs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Submission, error) {
		var (
			sub           domain.Submission
			got, possible score.Column
		)
		err := r.Scan(&sub.SubmissionID, &sub.ContestID, &sub.UserID, &sub.ProblemInstanceID, &sub.Kind,
			&sub.SubmittedAt, &got, &possible, &sub.Status)
		sub.Score, sub.MaxScore = got.Score, possible.Score
		return sub, err
	})
	if err != nil {
		return nil, scanError("list submissions", err)
	}

	return subs, nil
}

// ListResults returns the results of every user for every problem instance of the contest.
func (s *Service) ListResults(ctx context.Context, contestID string) ([]domain.Result, error) {
	const stmt = `
SELECT r.user_id, r.problem_instance_id, r.submission_id, r.score, r.status, r.updated_at
FROM user_problem_results r
JOIN problem_instances p ON p.problem_instance_id = r.problem_instance_id
WHERE p.contest_id = $1
ORDER BY r.user_id, r.problem_instance_id;`

	rows, err := s.db.Query(ctx, stmt, contestID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Result, error) {
		var (
			res domain.Result
			sc  score.Column
		)
		err := r.Scan(&res.UserID, &res.ProblemInstanceID, &res.SubmissionID, &sc, &res.Status, &res.UpdatedAt)
		res.Score = sc.Score
		return res, err
	})
	if err != nil {
		return nil, scanError("list results", err)
	}

	return results, nil
}

// scanError counts stored scores that no longer decode. They surface as the decode error itself.
func scanError(op string, err error) error {
	if stderrors.Is(err, errors.ErrDecode) {
		telemetry.ScoreDecodeErrors.Inc()
		var e *errors.Error
		if stderrors.As(err, &e) {
			return e
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
