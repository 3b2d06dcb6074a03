// Package scoring turns raw judging outcomes into scores: per test, per group of tests and per submission.
package scoring

import (
	"math"

	"github.com/victornm/standings/internal/domain"
)

// TestParams is the static configuration of a test. ExecTimeLimit is in milliseconds; nil means no limit.
type TestParams struct {
	ExecTimeLimit *int `json:"exec_time_limit,omitempty"`
	MaxScore      int  `json:"max_score"`
}

// RunResult is the outcome of running a solution on a test. TimeUsed is in milliseconds.
// ResultPercentage is set by checkers that grant partial credit.
type RunResult struct {
	ResultCode       domain.Status `json:"result_code"`
	TimeUsed         int           `json:"time_used"`
	ResultPercentage *float64      `json:"result_percentage,omitempty"`
}

// Result is a score with its cap and status, for a test, a group or a whole submission.
type Result struct {
	Score    int           `json:"score"`
	MaxScore int           `json:"max_score"`
	Status   domain.Status `json:"status"`
}

// TestScorer scores a single test.
type TestScorer func(p TestParams, r RunResult) Result

// DiscreteTestScorer grants the full score for an accepted run and nothing otherwise.
func DiscreteTestScorer(p TestParams, r RunResult) Result {
	s := 0
	if r.ResultCode == domain.StatusOK {
		s = p.MaxScore
	}

	return Result{Score: s, MaxScore: p.MaxScore, Status: r.ResultCode}
}

// ThresholdLinearTestScorer grants the full score, or the checker's percentage of it, to an accepted run within
// the time limit. Exceeding the limit gives nothing and turns the status into TLE. Without a limit time is not
// taken into account.
func ThresholdLinearTestScorer(p TestParams, r RunResult) Result {
	if r.ResultCode != domain.StatusOK {
		return Result{Score: 0, MaxScore: p.MaxScore, Status: r.ResultCode}
	}

	if limit, ok := timeLimit(p); ok && r.TimeUsed > limit {
		return Result{Score: 0, MaxScore: p.MaxScore, Status: domain.StatusTLE}
	}

	return Result{Score: creditCap(p, r), MaxScore: p.MaxScore, Status: r.ResultCode}
}

// HalfLimitLinearTestScorer grants full credit up to half of the time limit, then decreases it linearly to zero
// at the limit.
func HalfLimitLinearTestScorer(p TestParams, r RunResult) Result {
	if r.ResultCode != domain.StatusOK {
		return Result{Score: 0, MaxScore: p.MaxScore, Status: r.ResultCode}
	}

	credit := creditCap(p, r)
	limit, ok := timeLimit(p)
	switch {
	case !ok:
	case r.TimeUsed > limit:
		return Result{Score: 0, MaxScore: p.MaxScore, Status: domain.StatusTLE}
	case 2*r.TimeUsed > limit:
		credit = credit * 2 * (limit - r.TimeUsed) / limit
	}

	return Result{Score: credit, MaxScore: p.MaxScore, Status: r.ResultCode}
}

func timeLimit(p TestParams) (int, bool) {
	if p.ExecTimeLimit == nil || *p.ExecTimeLimit <= 0 {
		return 0, false
	}
	return *p.ExecTimeLimit, true
}

// creditCap is the max score scaled by the checker's percentage, rounded half away from zero and clipped to
// [0, max score].
func creditCap(p TestParams, r RunResult) int {
	if r.ResultPercentage == nil {
		return p.MaxScore
	}

	s := int(math.Round(float64(p.MaxScore) * *r.ResultPercentage / 100))
	return min(max(s, 0), p.MaxScore)
}
