package score

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/victornm/standings/internal/errors"
)

// PenaltyTime is charged for every rejected attempt on a solved problem.
const PenaltyTime = 20 * time.Minute

const (
	penaltySeconds = int(PenaltyTime / time.Second)

	maxACMField       = 9_999_999_999
	maxProblemsSolved = 99_999_999
	acmOrderingStep   = 10_000_000_000
	maxPenaltyMarks   = 3
	acmPayloadFields  = 4
	legacyACMFields   = 3
)

// ACM is an ACM-ICPC style result: solved problems, time of the accepted submissions and rejected attempts.
//
// When ACM scores are added, only addends that solved at least one problem contribute time and penalties,
// since teams are never penalized for problems they did not solve.
type ACM struct {
	problemsSolved int
	timePassed     int
	penaltiesCount int
}

// NewACM validates the fields. timePassed is in seconds.
func NewACM(problemsSolved, timePassed, penaltiesCount int) (ACM, error) {
	a := ACM{
		problemsSolved: problemsSolved,
		timePassed:     timePassed,
		penaltiesCount: penaltiesCount,
	}
	if err := a.validate(); err != nil {
		return ACM{}, err
	}

	return a, nil
}

// MustACM is like NewACM but panics on invalid input.
func MustACM(problemsSolved, timePassed, penaltiesCount int) ACM {
	a, err := NewACM(problemsSolved, timePassed, penaltiesCount)
	if err != nil {
		panic(err)
	}
	return a
}

func (ACM) Kind() Kind { return KindACM }

func (a ACM) ProblemsSolved() int { return a.problemsSolved }

// TimePassed returns the seconds accumulated by accepted submissions.
func (a ACM) TimePassed() int { return a.timePassed }

func (a ACM) PenaltiesCount() int { return a.penaltiesCount }

// TotalTime returns the time passed plus penalties in seconds, or 0 when nothing is solved.
func (a ACM) TotalTime() int {
	if a.problemsSolved == 0 {
		return 0
	}
	return a.timePassed + a.penaltiesCount*penaltySeconds
}

func (a ACM) String() string {
	penalty := a.PenaltyString()
	if a.problemsSolved == 0 {
		return penalty
	}

	s := formatMinutes(a.timePassed)
	if penalty != "" {
		s += " " + penalty
	}
	return s
}

// PenaltyString renders one star per penalty, switching to "*(N)" above three.
func (a ACM) PenaltyString() string {
	if a.penaltiesCount <= maxPenaltyMarks {
		return strings.Repeat("*", a.penaltiesCount)
	}
	return fmt.Sprintf("*(%d)", a.penaltiesCount)
}

// TotalTimeString renders the total time as H:MM:SS.
func (a ACM) TotalTimeString() string {
	t := a.TotalTime()
	return fmt.Sprintf("%d:%02d:%02d", t/3600, t%3600/60, t%60)
}

func (a ACM) payload() string {
	return fmt.Sprintf("%020d:%010d:%010d:%010d", a.ordering(), a.problemsSolved, a.timePassed, a.penaltiesCount)
}

// ordering grows with solved problems and shrinks with total time. It is always positive because the total
// time is kept below one ordering step.
func (a ACM) ordering() int {
	return acmOrderingStep*(a.problemsSolved+1) - a.TotalTime()
}

func (a ACM) add(o ACM) (ACM, error) {
	var sum ACM
	for _, x := range [...]ACM{a, o} {
		if x.problemsSolved > 0 {
			sum.problemsSolved += x.problemsSolved
			sum.timePassed += x.timePassed
			sum.penaltiesCount += x.penaltiesCount
		}
	}

	if err := sum.validate(); err != nil {
		return ACM{}, err
	}
	return sum, nil
}

func (a ACM) compare(o ACM) int {
	if c := cmp.Compare(a.problemsSolved, o.problemsSolved); c != 0 {
		return c
	}
	return cmp.Compare(o.TotalTime(), a.TotalTime())
}

func (a ACM) validate() error {
	switch {
	case a.problemsSolved < 0 || a.timePassed < 0 || a.penaltiesCount < 0:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("score: negative ACM field in %+v", a))
	case a.problemsSolved > maxProblemsSolved:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("score: too many problems solved: %d", a.problemsSolved))
	case a.timePassed > maxACMField || a.penaltiesCount > maxACMField || a.TotalTime() > maxACMField:
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("score: ACM time out of range: %+v", a))
	}

	return nil
}

func decodeACM(payload string) (ACM, error) {
	tokens := strings.Split(payload, ":")
	fields := make([]int, 0, len(tokens))
	for _, t := range tokens {
		n, err := parseDigits(t)
		if err != nil {
			return ACM{}, err
		}
		fields = append(fields, n)
	}

	switch len(fields) {
	case acmPayloadFields:
		a, err := NewACM(fields[1], fields[2], fields[3])
		if err != nil {
			return ACM{}, err
		}
		if a.ordering() != fields[0] {
			return ACM{}, fmt.Errorf("ordering key %d does not match fields", fields[0])
		}
		return a, nil
	case legacyACMFields:
		// time_passed:penalties_count:problems_solved
		return NewACM(fields[2], fields[0], fields[1])
	}

	return ACM{}, fmt.Errorf("expected %d or %d fields, got %d", acmPayloadFields, legacyACMFields, len(fields))
}

func parseDigits(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("invalid number %q", s)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return int(n), nil
}

// formatMinutes renders seconds as H:MM, dropping the seconds.
func formatMinutes(seconds int) string {
	minutes := seconds / 60
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
