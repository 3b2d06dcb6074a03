package scoring

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/score"
)

// SubmissionScore converts an evaluation result into the score values stored with a submission, for contests
// scored with the given kind. A system error yields no score at all.
func SubmissionScore(kind score.Kind, r Result) (got, possible score.Value, err error) {
	if r.Status == domain.StatusSE {
		return nil, nil, nil
	}

	switch kind {
	case score.KindInteger:
		return score.Integer(r.Score), score.Integer(r.MaxScore), nil
	case score.KindPercentage:
		full := score.MustPercentage(decimal.NewFromInt(100))
		if r.MaxScore == 0 {
			return score.MustPercentage(decimal.Zero), full, nil
		}
		p, err := score.NewPercentage(decimal.NewFromInt(int64(r.Score) * 100).Div(decimal.NewFromInt(int64(r.MaxScore))))
		if err != nil {
			return nil, nil, err
		}
		return p, full, nil
	case score.KindBinary, score.KindACM:
		return score.NewBinary(r.Status == domain.StatusOK), score.Accepted, nil
	}

	return nil, nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("scoring: unsupported score kind %q", kind))
}

// BestSubmission returns the submission with the highest score. Among equal scores the earliest one wins.
// Ignored submissions and submissions without a score are skipped; nil is returned when nothing is left.
func BestSubmission(subs []domain.Submission) (*domain.Submission, error) {
	var best *domain.Submission
	for i := range subs {
		s := &subs[i]
		if s.Kind == domain.SubmissionKindIgnored || s.Score == nil {
			continue
		}
		if best == nil {
			best = s
			continue
		}

		c, err := score.Compare(s.Score, best.Score)
		if err != nil {
			return nil, err
		}
		if c > 0 || (c == 0 && submittedBefore(s, best)) {
			best = s
		}
	}

	return best, nil
}

// ACMProblemScore computes the ACM result of a single problem. The problem is solved by the first accepted
// attempt; the time passed is counted from the round start and every rejected attempt before it is a penalty.
// Compilation errors, system errors and ignored submissions are not attempts.
func ACMProblemScore(subs []domain.Submission, roundStart time.Time) (score.ACM, error) {
	attempts := make([]*domain.Submission, 0, len(subs))
	for i := range subs {
		s := &subs[i]
		if !IsACMAttempt(*s) {
			continue
		}
		attempts = append(attempts, s)
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return submittedBefore(attempts[i], attempts[j])
	})

	penalties := 0
	for _, s := range attempts {
		if s.Status != domain.StatusOK {
			penalties++
			continue
		}

		passed := max(int(s.SubmittedAt.Sub(roundStart)/time.Second), 0)
		return score.NewACM(1, passed, penalties)
	}

	return score.NewACM(0, 0, penalties)
}

// IsACMAttempt reports whether the submission counts as an ACM attempt. Scoreless submissions never do.
func IsACMAttempt(s domain.Submission) bool {
	return s.Kind != domain.SubmissionKindIgnored && s.Score != nil &&
		s.Status != domain.StatusCE && s.Status != domain.StatusSE
}

func submittedBefore(a, b *domain.Submission) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.SubmissionID < b.SubmissionID
}
