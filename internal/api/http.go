package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/standings/internal/domain"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/ranking"
	"github.com/victornm/standings/internal/result"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/scoring"
	"github.com/victornm/standings/internal/telemetry"
)

const headerRequestID = "X-Request-ID"

func (a *API) registerRoutes(r gin.IRouter) {
	r.Use(requestID(), logRequests())

	r.GET("/contests/:contest/rankings", a.listRankings)
	r.GET("/contests/:contest/rankings/:key", a.getRanking)
	r.GET("/scores/:repr", a.decodeScore)
	r.POST("/evaluations", a.recordEvaluation)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := telemetry.WithRequestID(c.Request.Context(), c.GetHeader(headerRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, telemetry.RequestID(ctx))
		c.Next()
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		slog.Log(c.Request.Context(), level, "http: request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"user_id", c.GetHeader(headerUserID),
		)
	}
}

func (a *API) viewer(c *gin.Context) (domain.Viewer, error) {
	return newViewer(c.GetHeader(headerUserID), c.GetHeader(headerRole), c.Query("at"), a.now())
}

func (a *API) listRankings(c *gin.Context) {
	v, err := a.viewer(c)
	if err != nil {
		a.abort(c, err)
		return
	}

	es, err := a.rs.ListRankings(c.Request.Context(), ranking.ListRankingsRequest{
		ContestID: c.Param("contest"),
		Viewer:    v,
	})
	if err != nil {
		a.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rankings": newEntries(es)})
}

func (a *API) getRanking(c *gin.Context) {
	v, err := a.viewer(c)
	if err != nil {
		a.abort(c, err)
		return
	}

	contestID := c.Param("contest")
	r, err := a.rs.GetRanking(c.Request.Context(), ranking.GetRankingRequest{
		ContestID: contestID,
		Key:       c.Param("key"),
		Viewer:    v,
	})
	if err != nil {
		a.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newRanking(contestID, r))
}

func (a *API) decodeScore(c *gin.Context) {
	v, err := score.Decode(c.Param("repr"))
	if err != nil {
		a.abort(c, err)
		return
	}
	if v == nil {
		a.abort(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("empty score")))
		return
	}

	c.JSON(http.StatusOK, newScore(v))
}

type recordEvaluationRequest struct {
	SubmissionID      string             `json:"submission_id"`
	UserID            string             `json:"user_id" binding:"required"`
	ProblemInstanceID string             `json:"problem_instance_id" binding:"required"`
	Kind              string             `json:"kind"`
	SubmittedAt       time.Time          `json:"submitted_at" binding:"required"`
	Policy            *scoring.Policy    `json:"policy"`
	Tests             []scoring.TestCase `json:"tests" binding:"required"`
}

type recordEvaluationResponse struct {
	SubmissionID string         `json:"submission_id"`
	Evaluation   scoring.Result `json:"evaluation"`
	Score        *Score         `json:"score"`
	Result       *Result        `json:"result"`
}

func (a *API) recordEvaluation(c *gin.Context) {
	var req recordEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abort(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid evaluation: %v", err)))
		return
	}

	resp, err := a.res.RecordEvaluation(c.Request.Context(), result.RecordEvaluationRequest{
		SubmissionID:      req.SubmissionID,
		UserID:            req.UserID,
		ProblemInstanceID: req.ProblemInstanceID,
		Kind:              domain.SubmissionKind(req.Kind),
		SubmittedAt:       req.SubmittedAt,
		Tests:             req.Tests,
		Policy:            req.Policy,
	})
	if err != nil {
		a.abort(c, err)
		return
	}

	out := recordEvaluationResponse{
		SubmissionID: resp.Submission.SubmissionID,
		Evaluation:   resp.Evaluation,
		Score:        newScore(resp.Submission.Score),
	}
	if resp.Result != nil {
		out.Result = &Result{
			SubmissionID: resp.Result.SubmissionID,
			Status:       string(resp.Result.Status),
			Score:        newScore(resp.Result.Score),
		}
	}

	c.JSON(http.StatusCreated, out)
}

func (a *API) abort(c *gin.Context, err error) {
	e := toAPIError(c.Request.Context(), err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e})
}
