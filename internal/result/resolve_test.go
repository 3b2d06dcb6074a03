package result_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/result"
	"github.com/victornm/standings/internal/score"
)

var round = domain.Round{
	RoundID: "r1",
	Times:   domain.RoundTimes{Start: time.Date(2013, 12, 14, 20, 40, 0, 0, time.UTC)},
}

func submission(id string, after time.Duration, status domain.Status, s score.Value) domain.Submission {
	return domain.Submission{
		SubmissionID:      id,
		UserID:            "u1",
		ProblemInstanceID: "p1",
		Kind:              domain.SubmissionKindNormal,
		SubmittedAt:       round.Times.Start.Add(after),
		Score:             s,
		Status:            status,
	}
}

func ignored(s domain.Submission) domain.Submission {
	s.Kind = domain.SubmissionKindIgnored
	return s
}

func TestProblemResult(t *testing.T) {
	tests := map[string]struct {
		kind score.Kind
		subs []domain.Submission
		want *domain.Result
	}{
		"best score wins": {
			kind: score.KindInteger,
			subs: []domain.Submission{
				submission("s1", time.Minute, domain.StatusWA, score.Integer(40)),
				submission("s2", 2*time.Minute, domain.StatusOK, score.Integer(100)),
				submission("s3", 3*time.Minute, domain.StatusWA, score.Integer(70)),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s2",
				Score: score.Integer(100), Status: domain.StatusOK, UpdatedAt: round.Times.Start.Add(2 * time.Minute),
			},
		},
		"ignored submissions do not count": {
			kind: score.KindInteger,
			subs: []domain.Submission{
				submission("s1", time.Minute, domain.StatusWA, score.Integer(40)),
				ignored(submission("s2", 2*time.Minute, domain.StatusOK, score.Integer(100))),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s1",
				Score: score.Integer(40), Status: domain.StatusWA, UpdatedAt: round.Times.Start.Add(time.Minute),
			},
		},
		"only system errors": {
			kind: score.KindInteger,
			subs: []domain.Submission{
				submission("s1", time.Minute, domain.StatusSE, nil),
			},
		},
		"binary is accepted once any evaluation is": {
			kind: score.KindBinary,
			subs: []domain.Submission{
				submission("s1", time.Minute, domain.StatusWA, score.Rejected),
				submission("s2", 2*time.Minute, domain.StatusOK, score.Accepted),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s2",
				Score: score.Accepted, Status: domain.StatusOK, UpdatedAt: round.Times.Start.Add(2 * time.Minute),
			},
		},
		"ACM solved after penalties": {
			kind: score.KindACM,
			subs: []domain.Submission{
				submission("s1", 10*time.Minute, domain.StatusWA, score.Rejected),
				submission("s2", 15*time.Minute, domain.StatusCE, score.Rejected),
				submission("s3", 30*time.Minute, domain.StatusOK, score.Accepted),
				submission("s4", 40*time.Minute, domain.StatusWA, score.Rejected),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s3",
				Score: score.MustACM(1, 1800, 1), Status: domain.StatusOK, UpdatedAt: round.Times.Start.Add(30 * time.Minute),
			},
		},
		"ACM unsolved keeps the last attempt": {
			kind: score.KindACM,
			subs: []domain.Submission{
				submission("s2", 20*time.Minute, domain.StatusTLE, score.Rejected),
				submission("s1", 10*time.Minute, domain.StatusWA, score.Rejected),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s2",
				Score: score.MustACM(0, 0, 2), Status: domain.StatusTLE, UpdatedAt: round.Times.Start.Add(20 * time.Minute),
			},
		},
		"ACM system error is not a penalty": {
			kind: score.KindACM,
			subs: []domain.Submission{
				submission("s1", time.Minute, domain.StatusSE, score.Rejected),
				submission("s2", 2*time.Minute, domain.StatusOK, score.Accepted),
			},
			want: &domain.Result{
				UserID: "u1", ProblemInstanceID: "p1", SubmissionID: "s2",
				Score: score.MustACM(1, 120, 0), Status: domain.StatusOK, UpdatedAt: round.Times.Start.Add(2 * time.Minute),
			},
		},
		"ACM compilation errors only": {
			kind: score.KindACM,
			subs: []domain.Submission{
				submission("s1", 10*time.Minute, domain.StatusCE, score.Rejected),
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := result.ProblemResult(tt.kind, round, tt.subs)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
