// Package ranking builds contest standings from per-problem results.
package ranking

import (
	"cmp"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/score"
)

// ContestKey selects the ranking over all visible rounds.
const ContestKey = "c"

// Entry is a ranking a viewer may ask for.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Snapshot is the data a ranking is computed from. Rounds are listed in display order.
type Snapshot struct {
	Rounds           []domain.Round
	ProblemInstances []domain.ProblemInstance
	Users            []domain.User
	Results          []domain.Result
}

// Row is one user in a ranking. Results are aligned with Ranking.ProblemInstances; nil means no result.
type Row struct {
	Place   int
	User    domain.User
	Results []*domain.Result
	Sum     score.Value
}

type Ranking struct {
	Key              string
	Frozen           bool
	ProblemInstances []domain.ProblemInstance
	Rows             []Row
}

type ControllerConfig struct {
	Timeline   Timeline
	Visibility RoundVisibility
	Inclusion  RoundInclusionPolicy
	Users      UserFilter
}

// Controller computes rankings. It holds no state between calls.
type Controller struct {
	timeline   Timeline
	visibility RoundVisibility
	inclusion  RoundInclusionPolicy
	users      UserFilter
}

func NewController(c ControllerConfig) *Controller {
	ctrl := &Controller{
		timeline:   c.Timeline,
		visibility: c.Visibility,
		inclusion:  c.Inclusion,
		users:      c.Users,
	}

	if ctrl.timeline == nil {
		ctrl.timeline = StaticTimeline{}
	}
	if ctrl.visibility == nil {
		ctrl.visibility = ResultsPublished{}
	}
	if ctrl.inclusion == nil {
		ctrl.inclusion = TrialRoundsExcluded{}
	}
	if ctrl.users == nil {
		ctrl.users = ContestantsOnly
	}

	return ctrl
}

// AvailableRankings lists the contest ranking followed by one ranking per visible round.
// Nothing is offered when no round is visible, and a single visible round is offered as the contest ranking only.
func (c *Controller) AvailableRankings(v domain.Viewer, rounds []domain.Round) []Entry {
	visible := c.roundsForRanking(v, rounds, ContestKey)
	switch len(visible) {
	case 0:
		return []Entry{}
	case 1:
		return []Entry{{Key: ContestKey, Label: "Contest"}}
	}

	entries := make([]Entry, 0, len(visible)+1)
	entries = append(entries, Entry{Key: ContestKey, Label: "Contest"})
	for _, r := range visible {
		entries = append(entries, Entry{Key: r.RoundID, Label: r.Name})
	}
	return entries
}

// SerializeRanking computes the ranking identified by key as seen by v.
func (c *Controller) SerializeRanking(v domain.Viewer, snap Snapshot, key string) (*Ranking, error) {
	if key != ContestKey && !slices.ContainsFunc(snap.Rounds, func(r domain.Round) bool { return r.RoundID == key }) {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("ranking not found: key=%s", key))
	}

	rounds := c.roundsForRanking(v, snap.Rounds, key)
	pis := problemInstances(rounds, snap.ProblemInstances)

	freezes := c.freezeTimes(v, rounds)
	users := c.eligibleUsers(v, key, snap.Users)
	byUser := joinResults(pis, users, snap.Results, freezes)

	counted := c.inclusion.Included(rounds)
	rows := make([]Row, 0, len(byUser))
	for _, u := range sortedUsers(users, byUser) {
		row := Row{User: u, Results: make([]*domain.Result, len(pis))}
		for i, pi := range pis {
			r := byUser[u.UserID][pi.ProblemInstanceID]
			row.Results[i] = r
			if r == nil || r.Score == nil || !counted.Contains(pi.RoundID) {
				continue
			}

			sum, err := score.Add(row.Sum, r.Score)
			if err != nil {
				return nil, err
			}
			row.Sum = sum
		}

		// Users whose results carry no score at all, e.g. all evaluations failed with system errors.
		if row.Sum == nil {
			continue
		}
		rows = append(rows, row)
	}

	if err := assignPlaces(rows); err != nil {
		return nil, err
	}

	return &Ranking{
		Key:              key,
		Frozen:           len(freezes) > 0,
		ProblemInstances: pis,
		Rows:             rows,
	}, nil
}

func (c *Controller) roundsForRanking(v domain.Viewer, rounds []domain.Round, key string) []domain.Round {
	out := make([]domain.Round, 0, len(rounds))
	for _, r := range rounds {
		if key != ContestKey && r.RoundID != key {
			continue
		}
		if v.CanSeeAll() || c.visibility.Visible(c.timeline.RoundTimes(v, r), v.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}

// freezeTimes returns, per round, the time after which results are hidden from v.
func (c *Controller) freezeTimes(v domain.Viewer, rounds []domain.Round) map[string]time.Time {
	freezes := make(map[string]time.Time)
	if v.CanSeeAll() {
		return freezes
	}

	for _, r := range rounds {
		if t := c.timeline.RoundTimes(v, r); t.IsFrozen(v.Timestamp) {
			freezes[r.RoundID] = *t.FreezeTime
		}
	}
	return freezes
}

func (c *Controller) eligibleUsers(v domain.Viewer, key string, users []domain.User) map[string]domain.User {
	out := make(map[string]domain.User, len(users))
	for _, u := range users {
		if c.users.Eligible(v, key, u) {
			out[u.UserID] = u
		}
	}
	return out
}

// problemInstances keeps the problem instances of the given rounds, ordered by round then short name.
func problemInstances(rounds []domain.Round, all []domain.ProblemInstance) []domain.ProblemInstance {
	order := make(map[string]int, len(rounds))
	for i, r := range rounds {
		order[r.RoundID] = i
	}

	pis := make([]domain.ProblemInstance, 0, len(all))
	for _, pi := range all {
		if _, ok := order[pi.RoundID]; ok {
			pis = append(pis, pi)
		}
	}

	slices.SortFunc(pis, func(a, b domain.ProblemInstance) int {
		return cmp.Or(
			cmp.Compare(order[a.RoundID], order[b.RoundID]),
			cmp.Compare(a.ShortName, b.ShortName),
			cmp.Compare(a.ProblemInstanceID, b.ProblemInstanceID),
		)
	})
	return pis
}

// joinResults indexes results by user and problem instance. Results of other problems or users are dropped, and so
// are results updated after the freeze time of their round.
func joinResults(pis []domain.ProblemInstance, users map[string]domain.User, results []domain.Result, freezes map[string]time.Time) map[string]map[string]*domain.Result {
	roundOf := make(map[string]string, len(pis))
	for _, pi := range pis {
		roundOf[pi.ProblemInstanceID] = pi.RoundID
	}

	eligible := mapset.NewThreadUnsafeSet[string]()
	for id := range users {
		eligible.Add(id)
	}

	byUser := make(map[string]map[string]*domain.Result)
	for i := range results {
		r := results[i]
		roundID, ok := roundOf[r.ProblemInstanceID]
		if !ok || !eligible.Contains(r.UserID) {
			continue
		}
		if freeze, ok := freezes[roundID]; ok && !r.UpdatedAt.Before(freeze) {
			continue
		}

		if byUser[r.UserID] == nil {
			byUser[r.UserID] = make(map[string]*domain.Result)
		}
		byUser[r.UserID][r.ProblemInstanceID] = &r
	}

	return byUser
}

// sortedUsers returns users with at least one result, by last name, first name, username and id.
func sortedUsers(users map[string]domain.User, byUser map[string]map[string]*domain.Result) []domain.User {
	out := make([]domain.User, 0, len(byUser))
	for id := range byUser {
		out = append(out, users[id])
	}

	slices.SortFunc(out, func(a, b domain.User) int {
		return cmp.Or(
			cmp.Compare(a.LastName, b.LastName),
			cmp.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.Username, b.Username),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	return out
}

// assignPlaces sorts rows by descending sum and numbers them. Equal sums share a place and the next distinct sum
// takes the place matching its position, so places go 1, 1, 3.
func assignPlaces(rows []Row) error {
	var sortErr error
	slices.SortStableFunc(rows, func(a, b Row) int {
		c, err := score.Compare(b.Sum, a.Sum)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c
	})
	if sortErr != nil {
		return sortErr
	}

	for i := range rows {
		if i == 0 {
			rows[i].Place = 1
			continue
		}

		c, err := score.Compare(rows[i].Sum, rows[i-1].Sum)
		if err != nil {
			return err
		}
		if c == 0 {
			rows[i].Place = rows[i-1].Place
		} else {
			rows[i].Place = i + 1
		}
	}

	return nil
}
