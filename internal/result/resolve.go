package result

import (
	"cmp"
	"slices"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/scoring"
)

// ProblemResult reduces the submissions of one user for one problem instance of the round to their result.
// It returns nil when no submission counts. UpdatedAt is the time of the submission that decided the result.
func ProblemResult(kind score.Kind, round domain.Round, subs []domain.Submission) (*domain.Result, error) {
	if kind == score.KindACM {
		return acmResult(round, subs)
	}

	best, err := scoring.BestSubmission(subs)
	if err != nil || best == nil {
		return nil, err
	}

	return &domain.Result{
		UserID:            best.UserID,
		ProblemInstanceID: best.ProblemInstanceID,
		SubmissionID:      best.SubmissionID,
		Score:             best.Score,
		Status:            best.Status,
		UpdatedAt:         best.SubmittedAt,
	}, nil
}

func acmResult(round domain.Round, subs []domain.Submission) (*domain.Result, error) {
	attempts := make([]domain.Submission, 0, len(subs))
	for _, s := range subs {
		if !scoring.IsACMAttempt(s) {
			continue
		}
		attempts = append(attempts, s)
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	slices.SortStableFunc(attempts, func(a, b domain.Submission) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SubmissionID, b.SubmissionID)
	})

	deciding := attempts[len(attempts)-1]
	if i := slices.IndexFunc(attempts, func(s domain.Submission) bool { return s.Status == domain.StatusOK }); i >= 0 {
		deciding = attempts[i]
	}

	acm, err := scoring.ACMProblemScore(attempts, round.Times.Start)
	if err != nil {
		return nil, err
	}

	return &domain.Result{
		UserID:            deciding.UserID,
		ProblemInstanceID: deciding.ProblemInstanceID,
		SubmissionID:      deciding.SubmissionID,
		Score:             acm,
		Status:            deciding.Status,
		UpdatedAt:         deciding.SubmittedAt,
	}, nil
}
