package ranking

import (
	"time"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/score"
)

// Cached rankings keep scores in their canonical encoding.
type (
	cachedRanking struct {
		Key              string                   `json:"key"`
		Frozen           bool                     `json:"frozen"`
		ProblemInstances []domain.ProblemInstance `json:"problem_instances"`
		Rows             []cachedRow              `json:"rows"`
	}

	cachedRow struct {
		Place   int             `json:"place"`
		User    domain.User     `json:"user"`
		Results []*cachedResult `json:"results"`
		Sum     string          `json:"sum"`
	}

	cachedResult struct {
		SubmissionID string        `json:"submission_id"`
		Score        string        `json:"score"`
		Status       domain.Status `json:"status"`
		UpdatedAt    time.Time     `json:"updated_at"`
	}
)

func newCachedRanking(r *Ranking) cachedRanking {
	cr := cachedRanking{
		Key:              r.Key,
		Frozen:           r.Frozen,
		ProblemInstances: r.ProblemInstances,
		Rows:             make([]cachedRow, 0, len(r.Rows)),
	}

	for _, row := range r.Rows {
		crow := cachedRow{
			Place:   row.Place,
			User:    row.User,
			Results: make([]*cachedResult, len(row.Results)),
			Sum:     score.Encode(row.Sum),
		}
		for i, res := range row.Results {
			if res == nil {
				continue
			}
			crow.Results[i] = &cachedResult{
				SubmissionID: res.SubmissionID,
				Score:        score.Encode(res.Score),
				Status:       res.Status,
				UpdatedAt:    res.UpdatedAt,
			}
		}
		cr.Rows = append(cr.Rows, crow)
	}

	return cr
}

func (cr cachedRanking) ranking() (*Ranking, error) {
	r := &Ranking{
		Key:              cr.Key,
		Frozen:           cr.Frozen,
		ProblemInstances: cr.ProblemInstances,
		Rows:             make([]Row, 0, len(cr.Rows)),
	}

	for _, crow := range cr.Rows {
		sum, err := score.Decode(crow.Sum)
		if err != nil {
			return nil, err
		}

		row := Row{
			Place:   crow.Place,
			User:    crow.User,
			Results: make([]*domain.Result, len(crow.Results)),
			Sum:     sum,
		}
		for i, cres := range crow.Results {
			if cres == nil {
				continue
			}
			s, err := score.Decode(cres.Score)
			if err != nil {
				return nil, err
			}
			row.Results[i] = &domain.Result{
				UserID:            crow.User.UserID,
				ProblemInstanceID: cr.ProblemInstances[i].ProblemInstanceID,
				SubmissionID:      cres.SubmissionID,
				Score:             s,
				Status:            cres.Status,
				UpdatedAt:         cres.UpdatedAt,
			}
		}
		r.Rows = append(r.Rows, row)
	}

	return r, nil
}
