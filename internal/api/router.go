package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dkowalski/gridiron-gm/internal/api/handlers"
	"github.com/dkowalski/gridiron-gm/internal/api/middleware"
	"github.com/dkowalski/gridiron-gm/internal/services"
	"github.com/dkowalski/gridiron-gm/pkg/config"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, franchise *services.FranchiseService, cfg *config.Config) {
	teamHandler := handlers.NewTeamHandler(franchise)
	seasonHandler := handlers.NewSeasonHandler(franchise, cfg)

	// Read endpoints are public
	group.GET("/teams", teamHandler.ListTeams)
	group.GET("/teams/:id", teamHandler.GetTeam)

	group.GET("/seasons", seasonHandler.ListRuns)
	group.GET("/seasons/:id", seasonHandler.GetRun)
	group.GET("/seasons/:id/standings", seasonHandler.GetStandings)
	group.GET("/seasons/:id/games", seasonHandler.GetGames)
	group.GET("/seasons/:id/playoffs", seasonHandler.GetPlayoffs)
	group.GET("/seasons/:id/injuries", seasonHandler.GetInjuries)

	// Mutating endpoints require a commissioner token
	commissioner := group.Group("")
	commissioner.Use(middleware.AuthRequired(cfg.JWTSecret), middleware.CommissionerRequired())
	{
		commissioner.POST("/seasons/simulate", seasonHandler.SimulateSeason)
	}
}
