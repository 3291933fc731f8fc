package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dkowalski/gridiron-gm/internal/models"
	"github.com/dkowalski/gridiron-gm/internal/services"
	"github.com/dkowalski/gridiron-gm/pkg/config"
	"github.com/dkowalski/gridiron-gm/pkg/utils"
)

type SeasonHandler struct {
	franchise *services.FranchiseService
	cfg       *config.Config
}

func NewSeasonHandler(franchise *services.FranchiseService, cfg *config.Config) *SeasonHandler {
	return &SeasonHandler{
		franchise: franchise,
		cfg:       cfg,
	}
}

// SimulateSeason runs a complete season for the current league. The seed is
// optional; omitting it gives a fresh random season, passing one reproduces
// an earlier run exactly.
func (h *SeasonHandler) SimulateSeason(c *gin.Context) {
	var req struct {
		Year int    `json:"year"`
		Seed *int64 `json:"seed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	year := req.Year
	if year == 0 {
		year = h.cfg.SeasonYear
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	run, err := h.franchise.RunSeason(c.Request.Context(), year, seed)
	if err != nil {
		utils.SendInternalError(c, "Season simulation failed: "+err.Error())
		return
	}
	utils.SendSuccess(c, run)
}

// ListRuns returns recent season runs, newest first.
func (h *SeasonHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.franchise.ListRuns(c.Request.Context(), limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch season runs")
		return
	}
	utils.SendSuccess(c, runs)
}

// GetRun returns one season run by id.
func (h *SeasonHandler) GetRun(c *gin.Context) {
	run, err := h.franchise.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Season run not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch season run")
		}
		return
	}
	utils.SendSuccess(c, run)
}

// GetStandings returns the final regular-season table for a run.
func (h *SeasonHandler) GetStandings(c *gin.Context) {
	standings, err := h.franchise.GetStandings(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "No standings for that run")
		} else {
			utils.SendInternalError(c, "Failed to fetch standings")
		}
		return
	}
	utils.SendSuccess(c, standings)
}

// GetGames returns a run's games, optionally filtered by week (?week=3) or
// stage (?stage=postseason).
func (h *SeasonHandler) GetGames(c *gin.Context) {
	week := 0
	if weekStr := c.Query("week"); weekStr != "" {
		parsed, err := strconv.Atoi(weekStr)
		if err != nil || parsed < 1 {
			utils.SendValidationError(c, "Invalid week", "week must be a positive integer")
			return
		}
		week = parsed
	}

	stage := c.Query("stage")
	if stage != "" && stage != models.StageRegular && stage != models.StagePostseason {
		utils.SendValidationError(c, "Invalid stage", "stage must be regular or postseason")
		return
	}

	games, err := h.franchise.GetGames(c.Request.Context(), c.Param("id"), week, stage)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch games")
		return
	}
	utils.SendSuccess(c, games)
}

// GetPlayoffs returns a run's postseason bracket in round order.
func (h *SeasonHandler) GetPlayoffs(c *gin.Context) {
	games, err := h.franchise.GetPlayoffGames(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch playoff games")
		return
	}
	utils.SendSuccess(c, games)
}

// GetInjuries returns every injury recorded during a run.
func (h *SeasonHandler) GetInjuries(c *gin.Context) {
	injuries, err := h.franchise.GetInjuries(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch injuries")
		return
	}
	utils.SendSuccess(c, injuries)
}
