package domain

const (
	EventNameResultUpdated  = "result.updated"
	EventNameRankingUpdated = "ranking.updated"
)

// EventResultUpdated is published when a user's result for a problem instance changes.
type EventResultUpdated struct {
	ContestID string
	Result    Result
}

func (EventResultUpdated) Name() string { return EventNameResultUpdated }

type EventRankingUpdated struct {
	Standings Standings
}

func (EventRankingUpdated) Name() string { return EventNameRankingUpdated }
