package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/scoring"
)

type testRun struct {
	params scoring.TestParams
	run    scoring.RunResult
}

func limit(ms int) *int { return &ms }

func percent(p float64) *float64 { return &p }

func ok(limitMs, maxScore, used int) testRun {
	var l *int
	if limitMs > 0 {
		l = limit(limitMs)
	}
	return testRun{
		params: scoring.TestParams{ExecTimeLimit: l, MaxScore: maxScore},
		run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: used},
	}
}

var (
	runsOK = []testRun{
		ok(100, 100, 0),
		ok(100, 100, 50),
		ok(1000, 100, 501),
		ok(100, 100, 75),
		ok(1000, 100, 999),
		ok(0, 100, 0),
		ok(0, 100, 99999),
	}

	runsWrong = []testRun{
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
			run:    scoring.RunResult{ResultCode: domain.StatusWA, TimeUsed: 75},
		},
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
			run:    scoring.RunResult{ResultCode: domain.StatusRV, TimeUsed: 75},
		},
	}
	expectedWrong = []scoring.Result{
		{Score: 0, MaxScore: 100, Status: domain.StatusWA},
		{Score: 0, MaxScore: 100, Status: domain.StatusRV},
	}

	runsUnequalMaxScores = []testRun{
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 10},
			run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 10},
		},
		{
			params: scoring.TestParams{ExecTimeLimit: limit(1000), MaxScore: 20},
			run:    scoring.RunResult{ResultCode: domain.StatusWA, TimeUsed: 50},
		},
	}
	expectedUnequalMaxScores = []scoring.Result{
		{Score: 10, MaxScore: 10, Status: domain.StatusOK},
		{Score: 0, MaxScore: 20, Status: domain.StatusWA},
	}
)

func scoreAll(scorer scoring.TestScorer, runs []testRun) []scoring.Result {
	out := make([]scoring.Result, 0, len(runs))
	for _, r := range runs {
		out = append(out, scorer(r.params, r.run))
	}
	return out
}

func fullCredit(n int) []scoring.Result {
	out := make([]scoring.Result, n)
	for i := range out {
		out[i] = scoring.Result{Score: 100, MaxScore: 100, Status: domain.StatusOK}
	}
	return out
}

func TestDiscreteTestScorer(t *testing.T) {
	assert.Equal(t, fullCredit(len(runsOK)), scoreAll(scoring.DiscreteTestScorer, runsOK))
	assert.Equal(t, expectedWrong, scoreAll(scoring.DiscreteTestScorer, runsWrong))
	assert.Equal(t, expectedUnequalMaxScores, scoreAll(scoring.DiscreteTestScorer, runsUnequalMaxScores))
}

func TestThresholdLinearTestScorer(t *testing.T) {
	tests := map[string]struct {
		in   testRun
		want scoring.Result
	}{
		"at the limit": {
			in:   ok(100, 100, 100),
			want: scoring.Result{Score: 100, MaxScore: 100, Status: domain.StatusOK},
		},
		"over the limit": {
			in:   ok(100, 100, 101),
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusTLE},
		},
		"no limit": {
			in:   ok(0, 100, 1_000_000),
			want: scoring.Result{Score: 100, MaxScore: 100, Status: domain.StatusOK},
		},
		"percentage": {
			in: testRun{
				params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
				run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 75, ResultPercentage: percent(50)},
			},
			want: scoring.Result{Score: 50, MaxScore: 100, Status: domain.StatusOK},
		},
		"percentage rounds half away from zero": {
			in: testRun{
				params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 7},
				run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 1, ResultPercentage: percent(50)},
			},
			want: scoring.Result{Score: 4, MaxScore: 7, Status: domain.StatusOK},
		},
		"percentage is clipped": {
			in: testRun{
				params: scoring.TestParams{MaxScore: 10},
				run:    scoring.RunResult{ResultCode: domain.StatusOK, ResultPercentage: percent(250)},
			},
			want: scoring.Result{Score: 10, MaxScore: 10, Status: domain.StatusOK},
		},
		"negative percentage is clipped": {
			in: testRun{
				params: scoring.TestParams{MaxScore: 10},
				run:    scoring.RunResult{ResultCode: domain.StatusOK, ResultPercentage: percent(-5)},
			},
			want: scoring.Result{Score: 0, MaxScore: 10, Status: domain.StatusOK},
		},
		"over the limit with percentage": {
			in: testRun{
				params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
				run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 150, ResultPercentage: percent(80)},
			},
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusTLE},
		},
		"runtime error keeps its status": {
			in: testRun{
				params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
				run:    scoring.RunResult{ResultCode: domain.StatusRE, TimeUsed: 500},
			},
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusRE},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scoring.ThresholdLinearTestScorer(tt.in.params, tt.in.run))
		})
	}

	assert.Equal(t, fullCredit(len(runsOK)), scoreAll(scoring.ThresholdLinearTestScorer, runsOK))
	assert.Equal(t, expectedWrong, scoreAll(scoring.ThresholdLinearTestScorer, runsWrong))
	assert.Equal(t, expectedUnequalMaxScores, scoreAll(scoring.ThresholdLinearTestScorer, runsUnequalMaxScores))
}

func TestHalfLimitLinearTestScorer(t *testing.T) {
	got := scoreAll(scoring.HalfLimitLinearTestScorer, runsOK)
	scores := make([]int, 0, len(got))
	for _, r := range got {
		scores = append(scores, r.Score)
		assert.Equal(t, 100, r.MaxScore)
		assert.Equal(t, domain.StatusOK, r.Status)
	}
	assert.Equal(t, []int{100, 100, 99, 50, 0, 100, 100}, scores)

	withPercentage := []testRun{
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
			run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 0, ResultPercentage: percent(99)},
		},
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
			run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 75, ResultPercentage: percent(50)},
		},
		{
			params: scoring.TestParams{ExecTimeLimit: limit(100), MaxScore: 100},
			run:    scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 75, ResultPercentage: percent(0)},
		},
	}
	scores = scores[:0]
	for _, r := range scoreAll(scoring.HalfLimitLinearTestScorer, withPercentage) {
		scores = append(scores, r.Score)
	}
	assert.Equal(t, []int{99, 25, 0}, scores)

	assert.Equal(t,
		scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusTLE},
		scoring.HalfLimitLinearTestScorer(ok(100, 100, 101).params, ok(100, 100, 101).run))
	assert.Equal(t, expectedWrong, scoreAll(scoring.HalfLimitLinearTestScorer, runsWrong))
}

func TestMinGroupScorer(t *testing.T) {
	tests := map[string]struct {
		in      map[string]scoring.Result
		want    scoring.Result
		wantErr error
	}{
		"all accepted": {
			in: map[string]scoring.Result{
				"1a": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
				"1b": {Score: 50, MaxScore: 100, Status: domain.StatusOK},
				"1c": {Score: 99, MaxScore: 100, Status: domain.StatusOK},
			},
			want: scoring.Result{Score: 50, MaxScore: 100, Status: domain.StatusOK},
		},
		"one failing test caps the group": {
			in: map[string]scoring.Result{
				"0": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
				"1": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
				"2": {Score: 99, MaxScore: 100, Status: domain.StatusOK},
				"3": {Score: 50, MaxScore: 100, Status: domain.StatusOK},
				"4": {Score: 0, MaxScore: 100, Status: domain.StatusWA},
			},
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusWA},
		},
		"first failing status wins": {
			in: map[string]scoring.Result{
				"0": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
				"1": {Score: 0, MaxScore: 100, Status: domain.StatusWA},
				"2": {Score: 0, MaxScore: 100, Status: domain.StatusRV},
			},
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusWA},
		},
		"system error after a wrong answer": {
			in: map[string]scoring.Result{
				"0": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
				"1": {Score: 0, MaxScore: 100, Status: domain.StatusWA},
				"2": {Score: 0, MaxScore: 100, Status: domain.StatusSE},
			},
			want: scoring.Result{Score: 0, MaxScore: 100, Status: domain.StatusSE},
		},
		"unequal max scores": {
			in: map[string]scoring.Result{
				"0": {Score: 10, MaxScore: 10, Status: domain.StatusOK},
				"1": {Score: 0, MaxScore: 20, Status: domain.StatusWA},
			},
			wantErr: errors.ErrUnequalMaxScores,
		},
		"empty group": {
			in:      map[string]scoring.Result{},
			wantErr: errors.New(errors.CodeInvalidArgument),
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := scoring.MinGroupScorer(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.Equal(t, errors.Convert(tt.wantErr).Code, errors.Convert(err).Code)
				require.Equal(t, errors.Convert(tt.wantErr).Reason, errors.Convert(err).Reason)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := scoring.MinGroupScorer(map[string]scoring.Result{
		"0": {Score: 10, MaxScore: 10, Status: domain.StatusOK},
		"1": {Score: 0, MaxScore: 20, Status: domain.StatusWA},
	})
	require.ErrorIs(t, err, errors.ErrUnequalMaxScores)
}

func TestSumGroupScorer(t *testing.T) {
	ok4 := map[string]scoring.Result{
		"0": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
		"1": {Score: 100, MaxScore: 100, Status: domain.StatusOK},
		"2": {Score: 99, MaxScore: 100, Status: domain.StatusOK},
		"3": {Score: 50, MaxScore: 100, Status: domain.StatusOK},
	}

	wrong := map[string]scoring.Result{
		"4": {Score: 0, MaxScore: 100, Status: domain.StatusWA},
		"5": {Score: 0, MaxScore: 100, Status: domain.StatusRV},
	}
	for k, v := range ok4 {
		wrong[k] = v
	}

	unequal := map[string]scoring.Result{
		"6": {Score: 10, MaxScore: 10, Status: domain.StatusOK},
		"7": {Score: 0, MaxScore: 20, Status: domain.StatusWA},
	}
	for k, v := range wrong {
		unequal[k] = v
	}

	for name, scorer := range map[string]scoring.GroupScorer{
		"sum group scorer":     scoring.SumGroupScorer,
		"sum score aggregator": scoring.SumScoreAggregator,
	} {
		scorer := scorer
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := scorer(ok4)
			require.NoError(t, err)
			assert.Equal(t, scoring.Result{Score: 349, MaxScore: 400, Status: domain.StatusOK}, got)

			got, err = scorer(wrong)
			require.NoError(t, err)
			assert.Equal(t, scoring.Result{Score: 349, MaxScore: 600, Status: domain.StatusWA}, got)

			got, err = scorer(unequal)
			require.NoError(t, err)
			assert.Equal(t, scoring.Result{Score: 359, MaxScore: 630, Status: domain.StatusWA}, got)

			broken := map[string]scoring.Result{"8": {Score: 0, MaxScore: 100, Status: domain.StatusSE}}
			for k, v := range wrong {
				broken[k] = v
			}
			got, err = scorer(broken)
			require.NoError(t, err)
			assert.Equal(t, scoring.Result{Score: 349, MaxScore: 700, Status: domain.StatusSE}, got)
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []scoring.TestCase{
		{Name: "1a", Group: "1", Params: scoring.TestParams{ExecTimeLimit: limit(1000), MaxScore: 30}, Run: scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 100}},
		{Name: "1b", Group: "1", Params: scoring.TestParams{ExecTimeLimit: limit(1000), MaxScore: 30}, Run: scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 900}},
		{Name: "2a", Group: "2", Params: scoring.TestParams{ExecTimeLimit: limit(1000), MaxScore: 70}, Run: scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 10}},
		{Name: "2b", Group: "2", Params: scoring.TestParams{ExecTimeLimit: limit(1000), MaxScore: 70}, Run: scoring.RunResult{ResultCode: domain.StatusOK, TimeUsed: 1001}},
	}

	got, err := scoring.Evaluate(tests, scoring.Policy{})
	require.NoError(t, err)
	assert.Equal(t, scoring.Result{Score: 30, MaxScore: 100, Status: domain.StatusTLE}, got)

	got, err = scoring.Evaluate(tests, scoring.Policy{TestScorer: scoring.TestScorerHalfLimitLinear, GroupScorer: scoring.GroupScorerSum})
	require.NoError(t, err)
	// group 1: 30 + 30*2*100/1000, group 2: 70 + 0
	assert.Equal(t, scoring.Result{Score: 30 + 6 + 70, MaxScore: 200, Status: domain.StatusTLE}, got)

	crashed := []scoring.TestCase{
		{Name: "1a", Group: "1", Params: scoring.TestParams{MaxScore: 50}, Run: scoring.RunResult{ResultCode: domain.StatusOK}},
		{Name: "2a", Group: "2", Params: scoring.TestParams{MaxScore: 50}, Run: scoring.RunResult{ResultCode: domain.StatusWA}},
		{Name: "3a", Group: "3", Params: scoring.TestParams{MaxScore: 50}, Run: scoring.RunResult{ResultCode: domain.StatusSE}},
	}
	got, err = scoring.Evaluate(crashed, scoring.Policy{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSE, got.Status)

	_, err = scoring.Evaluate(tests, scoring.Policy{TestScorer: "nope"})
	require.Error(t, err)

	_, err = scoring.Evaluate(nil, scoring.Policy{})
	require.Error(t, err)

	dup := append([]scoring.TestCase{}, tests[0], tests[0])
	_, err = scoring.Evaluate(dup, scoring.Policy{})
	require.Error(t, err)

	mixed := []scoring.TestCase{
		{Name: "1a", Group: "1", Params: scoring.TestParams{MaxScore: 10}, Run: scoring.RunResult{ResultCode: domain.StatusOK}},
		{Name: "1b", Group: "1", Params: scoring.TestParams{MaxScore: 20}, Run: scoring.RunResult{ResultCode: domain.StatusOK}},
	}
	_, err = scoring.Evaluate(mixed, scoring.Policy{})
	require.ErrorIs(t, err, errors.ErrUnequalMaxScores)
}
