package domain

import (
	"time"

	"github.com/victornm/standings/internal/score"
)

// Status is a judging result code.
type Status string

const (
	StatusOK     Status = "OK"
	StatusWA     Status = "WA"
	StatusTLE    Status = "TLE"
	StatusRE     Status = "RE"
	StatusRV     Status = "RV"
	StatusMLE    Status = "MLE"
	StatusOLE    Status = "OLE"
	StatusCE     Status = "CE"
	StatusSE     Status = "SE"
	StatusINIOK  Status = "INI_OK"
	StatusINIErr Status = "INI_ERR"
)

// Contest groups rounds scored with a single score kind.
type Contest struct {
	ContestID string
	Name      string
	ScoreKind score.Kind
}

// Round is a part of a contest with its own timeline.
type Round struct {
	RoundID   string
	ContestID string
	Name      string
	IsTrial   bool
	Times     RoundTimes
}

// RoundTimes describes when a round runs and when its results are published.
// A nil End means the round never ends; a nil ResultsDate means results are never published.
type RoundTimes struct {
	Start       time.Time
	End         *time.Time
	ResultsDate *time.Time
	FreezeTime  *time.Time
}

func (t RoundTimes) IsFuture(ts time.Time) bool {
	return ts.Before(t.Start)
}

func (t RoundTimes) IsActive(ts time.Time) bool {
	return !t.IsFuture(ts) && (t.End == nil || ts.Before(*t.End))
}

func (t RoundTimes) IsPast(ts time.Time) bool {
	return t.End != nil && !ts.Before(*t.End)
}

func (t RoundTimes) ResultsVisible(ts time.Time) bool {
	return t.ResultsDate != nil && !ts.Before(*t.ResultsDate)
}

// IsFrozen reports whether the public ranking stopped following new results: the freeze time passed and
// results are not published yet.
func (t RoundTimes) IsFrozen(ts time.Time) bool {
	return t.FreezeTime != nil && !ts.Before(*t.FreezeTime) && !t.ResultsVisible(ts)
}

type ProblemInstance struct {
	ProblemInstanceID string
	ContestID         string
	RoundID           string
	ShortName         string
	Name              string
}

type User struct {
	UserID      string
	Username    string
	FirstName   string
	LastName    string
	IsSuperuser bool
	IsStaff     bool
}

// Viewer is the identity a ranking is computed for. Timestamp is the moment the ranking is looked at.
type Viewer struct {
	UserID     string
	IsAdmin    bool
	IsObserver bool
	Timestamp  time.Time
}

// CanSeeAll reports whether the viewer sees every round regardless of publication times.
func (v Viewer) CanSeeAll() bool {
	return v.IsAdmin || v.IsObserver
}

type SubmissionKind string

const (
	SubmissionKindNormal  SubmissionKind = "NORMAL"
	SubmissionKindIgnored SubmissionKind = "IGNORED"
)

// Submission is one evaluated attempt. Score is nil when the evaluation did not produce one, e.g. on a system error.
type Submission struct {
	SubmissionID      string
	ContestID         string
	UserID            string
	ProblemInstanceID string
	Kind              SubmissionKind
	SubmittedAt       time.Time
	Score             score.Value
	MaxScore          score.Value
	Status            Status
}

// Result is the best known result of a user for a problem instance.
type Result struct {
	UserID            string
	ProblemInstanceID string
	SubmissionID      string
	Score             score.Value
	Status            Status
	UpdatedAt         time.Time
}

// Standings is a flattened ranking, ready to be sent to users.
type Standings struct {
	ContestID string
	Key       string
	Frozen    bool
	Entries   []StandingsEntry
}

type StandingsEntry struct {
	Place    int
	Username string
	Score    string
}
