package scoring

import (
	"github.com/victornm/standings/internal/errors"
)

type TestScorerName string

const (
	TestScorerDiscrete        TestScorerName = "discrete"
	TestScorerThresholdLinear TestScorerName = "threshold_linear"
	TestScorerHalfLimitLinear TestScorerName = "half_limit_linear"
)

type GroupScorerName string

const (
	GroupScorerMin GroupScorerName = "min"
	GroupScorerSum GroupScorerName = "sum"
)

var (
	testScorers = map[TestScorerName]TestScorer{
		TestScorerDiscrete:        DiscreteTestScorer,
		TestScorerThresholdLinear: ThresholdLinearTestScorer,
		TestScorerHalfLimitLinear: HalfLimitLinearTestScorer,
	}

	groupScorers = map[GroupScorerName]GroupScorer{
		GroupScorerMin: MinGroupScorer,
		GroupScorerSum: SumGroupScorer,
	}
)

// Policy selects the scorers used to evaluate a submission. Empty fields fall back to DefaultPolicy.
type Policy struct {
	TestScorer  TestScorerName  `json:"test_scorer,omitempty"`
	GroupScorer GroupScorerName `json:"group_scorer,omitempty"`
}

var DefaultPolicy = Policy{
	TestScorer:  TestScorerThresholdLinear,
	GroupScorer: GroupScorerMin,
}

// TestCase is a judged test together with its configuration.
type TestCase struct {
	Name   string     `json:"name"`
	Group  string     `json:"group"`
	Params TestParams `json:"params"`
	Run    RunResult  `json:"run"`
}

// Evaluate scores every test, reduces each group with the policy's group scorer and sums the groups.
func Evaluate(tests []TestCase, p Policy) (Result, error) {
	ts, gs, err := p.scorers()
	if err != nil {
		return Result{}, err
	}

	if len(tests) == 0 {
		return Result{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("scoring: no tests to evaluate"))
	}

	byGroup := make(map[string]map[string]Result)
	for _, t := range tests {
		g, ok := byGroup[t.Group]
		if !ok {
			g = make(map[string]Result)
			byGroup[t.Group] = g
		}

		if _, dup := g[t.Name]; dup {
			return Result{}, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("scoring: duplicate test %q in group %q", t.Name, t.Group))
		}
		g[t.Name] = ts(t.Params, t.Run)
	}

	groups := make(map[string]Result, len(byGroup))
	for name, results := range byGroup {
		r, err := gs(results)
		if err != nil {
			return Result{}, err
		}
		groups[name] = r
	}

	return SumScoreAggregator(groups)
}

func (p Policy) scorers() (TestScorer, GroupScorer, error) {
	if p.TestScorer == "" {
		p.TestScorer = DefaultPolicy.TestScorer
	}
	if p.GroupScorer == "" {
		p.GroupScorer = DefaultPolicy.GroupScorer
	}

	ts, ok := testScorers[p.TestScorer]
	if !ok {
		return nil, nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("scoring: unknown test scorer %q", p.TestScorer))
	}

	gs, ok := groupScorers[p.GroupScorer]
	if !ok {
		return nil, nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("scoring: unknown group scorer %q", p.GroupScorer))
	}

	return ts, gs, nil
}
