package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/standings/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	Standings struct {
		ContestID string           `json:"contest_id"`
		Key       string           `json:"key"`
		Frozen    bool             `json:"frozen"`
		Entries   []StandingsEntry `json:"entries"`
	}

	StandingsEntry struct {
		Place    int    `json:"place"`
		Username string `json:"username"`
		Score    string `json:"score"`
	}
)

// PublishRankingUpdated pushes the new standings to every user listed in them.
func (a *API) PublishRankingUpdated(ctx context.Context, e domain.EventRankingUpdated) error {
	st := e.Standings

	data := Standings{
		ContestID: st.ContestID,
		Key:       st.Key,
		Frozen:    st.Frozen,
		Entries:   make([]StandingsEntry, 0, len(st.Entries)),
	}

	for _, entry := range st.Entries {
		data.Entries = append(data.Entries, StandingsEntry(entry))
	}

	b, err := json.Marshal(Notification{Event: e.Name(), Data: data})
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %w", e.Name(), err)
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		eg.Go(func() error {
			return a.redis.Publish(ctx, a.userChannel(entry.Username), b).Err()
		})
	}

	return eg.Wait()
}

func (a *API) userChannel(username string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, username)
}
