package ranking

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/victornm/standings/internal/domain"
)

// Timeline supplies the times of a round as seen by a viewer.
type Timeline interface {
	RoundTimes(v domain.Viewer, r domain.Round) domain.RoundTimes
}

// StaticTimeline uses the times stored with the round for everybody.
type StaticTimeline struct{}

func (StaticTimeline) RoundTimes(_ domain.Viewer, r domain.Round) domain.RoundTimes {
	return r.Times
}

// RoundVisibility decides whether a round appears in rankings shown to viewers who cannot see everything.
type RoundVisibility interface {
	Visible(t domain.RoundTimes, ts time.Time) bool
}

// ResultsPublished shows a round once its results date passed.
type ResultsPublished struct{}

func (ResultsPublished) Visible(t domain.RoundTimes, ts time.Time) bool {
	return t.ResultsVisible(ts)
}

// RoundStarted shows a round as soon as it starts, as ACM scoreboards do.
type RoundStarted struct{}

func (RoundStarted) Visible(t domain.RoundTimes, ts time.Time) bool {
	return !t.IsFuture(ts)
}

// RoundInclusionPolicy decides which of the considered rounds contribute to the ranking sum.
type RoundInclusionPolicy interface {
	Included(considered []domain.Round) mapset.Set[string]
}

// TrialRoundsExcluded counts trial rounds only when every considered round is a trial round.
type TrialRoundsExcluded struct{}

func (TrialRoundsExcluded) Included(considered []domain.Round) mapset.Set[string] {
	all := mapset.NewThreadUnsafeSet[string]()
	regular := mapset.NewThreadUnsafeSet[string]()
	for _, r := range considered {
		all.Add(r.RoundID)
		if !r.IsTrial {
			regular.Add(r.RoundID)
		}
	}

	if regular.IsEmpty() {
		return all
	}
	return regular
}

// AllRounds counts every considered round.
type AllRounds struct{}

func (AllRounds) Included(considered []domain.Round) mapset.Set[string] {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, r := range considered {
		s.Add(r.RoundID)
	}
	return s
}

// UserFilter decides which users may appear in a ranking.
type UserFilter interface {
	Eligible(v domain.Viewer, key string, u domain.User) bool
}

type UserFilterFunc func(v domain.Viewer, key string, u domain.User) bool

func (f UserFilterFunc) Eligible(v domain.Viewer, key string, u domain.User) bool {
	return f(v, key, u)
}

// ContestantsOnly leaves out superusers and staff.
var ContestantsOnly = UserFilterFunc(func(_ domain.Viewer, _ string, u domain.User) bool {
	return !u.IsSuperuser && !u.IsStaff
})

// NoSuperusers leaves out superusers only.
var NoSuperusers = UserFilterFunc(func(_ domain.Viewer, _ string, u domain.User) bool {
	return !u.IsSuperuser
})
