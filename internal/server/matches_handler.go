package server

import (
	"net/http"

	"github.com/careerpilot/backend/internal/match"
	"github.com/careerpilot/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type MatchesHandler struct {
	matches *services.Matches
}

func NewMatchesHandler(matches *services.Matches) *MatchesHandler {
	return &MatchesHandler{matches: matches}
}

type matchView struct {
	Job       jobView            `json:"job"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

func (h *MatchesHandler) List(c *gin.Context) {

	results, err := h.matches.GetMatches(c.Request.Context(), currentUserID(c), intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": lo.Map(results, func(result match.Result, _ int) matchView {
			return matchView{
				Job:       toJobView(result.Job),
				Score:     result.Score,
				Breakdown: result.Breakdown,
			}
		}),
	})
}
