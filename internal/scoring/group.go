package scoring

import (
	"sort"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
)

// GroupScorer reduces results keyed by test (or group) name into one result.
// A system error anywhere makes the whole result a system error. Otherwise, when several entries fail, the status
// of the first one in ascending name order is reported.
type GroupScorer func(results map[string]Result) (Result, error)

// MinGroupScorer takes the lowest score of the group, so a single failing test caps the whole group.
// All tests must share the same max score.
func MinGroupScorer(results map[string]Result) (Result, error) {
	names, err := sortedNames(results)
	if err != nil {
		return Result{}, err
	}

	out := results[names[0]]
	out.Status = domain.StatusOK
	for _, n := range names {
		r := results[n]
		if r.MaxScore != out.MaxScore {
			return Result{}, errors.Wrap(errors.ErrUnequalMaxScores,
				errors.WithMessagef("scoring: test %q has max score %d, expected %d", n, r.MaxScore, out.MaxScore))
		}

		out.Score = min(out.Score, r.Score)
		out.Status = firstFailure(out.Status, r.Status)
	}

	return out, nil
}

// SumGroupScorer adds up scores and max scores of the group.
func SumGroupScorer(results map[string]Result) (Result, error) {
	names, err := sortedNames(results)
	if err != nil {
		return Result{}, err
	}

	out := Result{Status: domain.StatusOK}
	for _, n := range names {
		r := results[n]
		out.Score += r.Score
		out.MaxScore += r.MaxScore
		out.Status = firstFailure(out.Status, r.Status)
	}

	return out, nil
}

// SumScoreAggregator combines group results into the submission result the same way SumGroupScorer combines tests.
func SumScoreAggregator(groups map[string]Result) (Result, error) {
	return SumGroupScorer(groups)
}

func firstFailure(current, next domain.Status) domain.Status {
	if current == domain.StatusOK || next == domain.StatusSE {
		return next
	}
	return current
}

func sortedNames(results map[string]Result) ([]string, error) {
	if len(results) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("scoring: no results to aggregate"))
	}

	names := make([]string, 0, len(results))
	for n := range results {
		names = append(names, n)
	}
	sort.Strings(names)

	return names, nil
}
