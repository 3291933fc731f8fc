package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dkowalski/gridiron-gm/internal/services"
	"github.com/dkowalski/gridiron-gm/pkg/utils"
)

type TeamHandler struct {
	franchise *services.FranchiseService
}

func NewTeamHandler(franchise *services.FranchiseService) *TeamHandler {
	return &TeamHandler{franchise: franchise}
}

// ListTeams returns every franchise ordered by rating.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.franchise.ListTeams(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch teams")
		return
	}
	utils.SendSuccess(c, teams)
}

// GetTeam returns one franchise with its roster.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid team ID", err.Error())
		return
	}

	team, err := h.franchise.GetTeam(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Team not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch team")
		}
		return
	}
	utils.SendSuccess(c, team)
}
