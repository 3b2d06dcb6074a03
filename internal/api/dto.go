package api

import (
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/score"
)

type (
	Entry struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}

	Ranking struct {
		ContestID string    `json:"contest_id"`
		Key       string    `json:"key"`
		Frozen    bool      `json:"frozen"`
		Problems  []Problem `json:"problems"`
		Rows      []Row     `json:"rows"`
	}

	Problem struct {
		ID        string `json:"id"`
		RoundID   string `json:"round_id"`
		ShortName string `json:"short_name"`
		Name      string `json:"name"`
	}

	Row struct {
		Place   int       `json:"place"`
		User    User      `json:"user"`
		Results []*Result `json:"results"`
		Sum     *Score    `json:"sum"`
	}

	User struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	Result struct {
		SubmissionID string `json:"submission_id"`
		Status       string `json:"status"`
		Score        *Score `json:"score"`
	}

	// Score carries both the canonical encoding and the display form of a score value.
	Score struct {
		Kind      string `json:"kind"`
		Encoded   string `json:"encoded"`
		Display   string `json:"display"`
		TotalTime string `json:"total_time,omitempty"`
	}
)

func newEntries(es []ranking.Entry) []Entry {
	out := make([]Entry, 0, len(es))
	for _, e := range es {
		out = append(out, Entry(e))
	}
	return out
}

func newRanking(contestID string, r *ranking.Ranking) Ranking {
	out := Ranking{
		ContestID: contestID,
		Key:       r.Key,
		Frozen:    r.Frozen,
		Problems:  make([]Problem, 0, len(r.ProblemInstances)),
		Rows:      make([]Row, 0, len(r.Rows)),
	}

	for _, pi := range r.ProblemInstances {
		out.Problems = append(out.Problems, Problem{
			ID:        pi.ProblemInstanceID,
			RoundID:   pi.RoundID,
			ShortName: pi.ShortName,
			Name:      pi.Name,
		})
	}

	for _, row := range r.Rows {
		ar := Row{
			Place: row.Place,
			User: User{
				ID:        row.User.UserID,
				Username:  row.User.Username,
				FirstName: row.User.FirstName,
				LastName:  row.User.LastName,
			},
			Results: make([]*Result, len(row.Results)),
			Sum:     newScore(row.Sum),
		}
		for i, res := range row.Results {
			if res == nil {
				continue
			}
			ar.Results[i] = &Result{
				SubmissionID: res.SubmissionID,
				Status:       string(res.Status),
				Score:        newScore(res.Score),
			}
		}
		out.Rows = append(out.Rows, ar)
	}

	return out
}

func newScore(v score.Value) *Score {
	if v == nil {
		return nil
	}

	s := &Score{
		Kind:    string(v.Kind()),
		Encoded: score.Encode(v),
		Display: v.String(),
	}
	if acm, ok := v.(score.ACM); ok {
		s.TotalTime = acm.TotalTimeString()
	}
	return s
}
