package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkowalski/gridiron-gm/internal/models"
	"github.com/dkowalski/gridiron-gm/internal/simulator"
	"github.com/dkowalski/gridiron-gm/pkg/config"
	"github.com/dkowalski/gridiron-gm/pkg/database"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		PlayoffSeeds:      4,
		SeasonYear:        2025,
		StandingsCacheTTL: 60,
		ParallelWeeks:     false,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewConnection(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Team{},
		&models.Player{},
		&models.SeasonRun{},
		&models.GameRecord{},
		&models.StandingRecord{},
		&models.InjuryRecord{},
	))
	return db
}

func seedLeague(t *testing.T, db *database.DB, count int) []models.Team {
	t.Helper()
	positions := []string{"QB", "RB", "WR", "K"}
	snaps := []int{65, 45, 60, 8}

	teams := make([]models.Team, 0, count)
	for i := 0; i < count; i++ {
		team := models.Team{
			Name:   fmt.Sprintf("Team %d", i+1),
			Abbr:   fmt.Sprintf("T%d", i+1),
			Rating: 1500 + float64(i)*20,
		}
		require.NoError(t, db.Create(&team).Error)
		for j, pos := range positions {
			player := models.Player{
				TeamID:       team.ID,
				Name:         fmt.Sprintf("Player %d-%d", i+1, j+1),
				Position:     pos,
				SnapsPlanned: snaps[j],
			}
			require.NoError(t, db.Create(&player).Error)
		}
		teams = append(teams, team)
	}
	return teams
}

func newTestService(t *testing.T, db *database.DB) *FranchiseService {
	t.Helper()
	return NewFranchiseService(db, nil, NewWebSocketHub(), testConfig(), quietLogger(), nil)
}

func TestRunSeasonPersistsFullRun(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 4)
	svc := newTestService(t, db)

	run, err := svc.RunSeason(context.Background(), 2025, 42)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 2025, run.Year)
	assert.Equal(t, 3, run.Weeks)
	require.NotNil(t, run.ChampionTeamID)

	var regular, postseason int64
	require.NoError(t, db.Model(&models.GameRecord{}).
		Where("run_id = ? AND stage = ?", run.ID, models.StageRegular).Count(&regular).Error)
	require.NoError(t, db.Model(&models.GameRecord{}).
		Where("run_id = ? AND stage = ?", run.ID, models.StagePostseason).Count(&postseason).Error)
	assert.Equal(t, int64(6), regular)
	assert.Equal(t, int64(3), postseason)

	var standings []models.StandingRecord
	require.NoError(t, db.Where("run_id = ?", run.ID).Order("rank ASC").Find(&standings).Error)
	require.Len(t, standings, 4)
	for i, record := range standings {
		assert.Equal(t, i+1, record.Rank)
		assert.Equal(t, 3, record.Wins+record.Losses+record.Ties)
	}
}

func TestRunSeasonPreservesRatingSum(t *testing.T) {
	db := newTestDB(t)
	teams := seedLeague(t, db, 4)
	svc := newTestService(t, db)

	before := 0.0
	for _, team := range teams {
		before += team.Rating
	}

	_, err := svc.RunSeason(context.Background(), 2025, 7)
	require.NoError(t, err)

	var updated []models.Team
	require.NoError(t, db.Find(&updated).Error)
	after := 0.0
	changed := false
	for i, team := range updated {
		after += team.Rating
		if team.Rating != teams[i].Rating {
			changed = true
		}
	}

	// Each game's rating exchange is zero-sum, so the league total is stable
	// even as individual ratings move.
	assert.InDelta(t, before, after, 1e-6)
	assert.True(t, changed)
}

func TestRunSeasonRequiresTwoTeams(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 1)
	svc := newTestService(t, db)

	_, err := svc.RunSeason(context.Background(), 2025, 1)
	assert.ErrorContains(t, err, "at least 2 teams")
}

func TestRunSeasonDeterministicForSeed(t *testing.T) {
	scores := func(t *testing.T, dbName string) []string {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
		db, err := database.NewConnection(dsn, false)
		require.NoError(t, err)
		defer db.Close()
		require.NoError(t, db.AutoMigrate(
			&models.Team{}, &models.Player{}, &models.SeasonRun{},
			&models.GameRecord{}, &models.StandingRecord{}, &models.InjuryRecord{},
		))
		seedLeague(t, db, 4)
		svc := NewFranchiseService(db, nil, NewWebSocketHub(), testConfig(), quietLogger(), nil)

		run, err := svc.RunSeason(context.Background(), 2025, 99)
		require.NoError(t, err)

		var games []models.GameRecord
		require.NoError(t, db.Where("run_id = ?", run.ID).Order("week ASC, id ASC").Find(&games).Error)
		lines := make([]string, 0, len(games))
		for _, game := range games {
			lines = append(lines, fmt.Sprintf("%d:%d-%d %d-%d", game.Week, game.HomeTeamID, game.AwayTeamID, game.HomeScore, game.AwayScore))
		}
		return lines
	}

	first := scores(t, "determinism_a")
	second := scores(t, "determinism_b")
	assert.Equal(t, first, second)
}

func TestGetStandingsEnrichesTeams(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 4)
	svc := newTestService(t, db)

	run, err := svc.RunSeason(context.Background(), 2025, 11)
	require.NoError(t, err)

	views, err := svc.GetStandings(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, views, 4)
	for i, view := range views {
		assert.Equal(t, i+1, view.Rank)
		assert.NotEmpty(t, view.Name)
		assert.NotEmpty(t, view.Abbr)
		assert.Equal(t, view.PointsFor-view.PointsAgainst, view.PointDiff)
	}
}

func TestGetGamesFilters(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 4)
	svc := newTestService(t, db)

	run, err := svc.RunSeason(context.Background(), 2025, 23)
	require.NoError(t, err)

	weekOne, err := svc.GetGames(context.Background(), run.ID, 1, models.StageRegular)
	require.NoError(t, err)
	assert.Len(t, weekOne, 2)
	for _, game := range weekOne {
		assert.Equal(t, 1, game.Week)
	}

	playoffs, err := svc.GetPlayoffGames(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, playoffs, 3)
	assert.Equal(t, "Semifinals", playoffs[0].RoundName)
	assert.Equal(t, "Championship", playoffs[2].RoundName)
	for _, game := range playoffs {
		assert.Equal(t, models.StagePostseason, game.Stage)
	}
}

func TestRunSeasonWritesPlayerState(t *testing.T) {
	db := newTestDB(t)
	seedLeague(t, db, 4)
	svc := newTestService(t, db)

	_, err := svc.RunSeason(context.Background(), 2025, 55)
	require.NoError(t, err)

	var players []models.Player
	require.NoError(t, db.Find(&players).Error)
	require.NotEmpty(t, players)
	for _, player := range players {
		assert.GreaterOrEqual(t, player.Fatigue, 0.0)
		assert.GreaterOrEqual(t, player.InjuryWeeksRemaining, 0)
	}
}

func TestBracketSize(t *testing.T) {
	tests := []struct {
		requested int
		teams     int
		want      int
	}{
		{4, 8, 4},
		{4, 4, 4},
		{8, 6, 4},
		{4, 3, 2},
		{2, 2, 2},
		{16, 10, 8},
		{3, 8, 2},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, bracketSize(tc.requested, tc.teams),
			"requested=%d teams=%d", tc.requested, tc.teams)
	}
}

func TestUpdatedRatingsWinnerGains(t *testing.T) {
	teams := []models.Team{
		{ID: 1, Rating: 1500},
		{ID: 2, Rating: 1500},
	}
	games := []simulator.GameLog{
		{HomeTeamID: 1, AwayTeamID: 2, HomeScore: 24, AwayScore: 10},
	}

	ratings := updatedRatings(teams, games, nil)
	assert.Greater(t, ratings[1], 1500.0)
	assert.Less(t, ratings[2], 1500.0)
	assert.InDelta(t, 3000.0, ratings[1]+ratings[2], 1e-9)
}

func TestBuildField(t *testing.T) {
	teams := []models.Team{
		{
			ID:     3,
			Name:   "Capital Stags",
			Abbr:   "CAP",
			Rating: 1510,
			Players: []models.Player{
				{ID: 9, TeamID: 3, Name: "Sam Voss", Position: "QB", SnapsPlanned: 65, Fatigue: 12.5},
			},
		},
	}

	seeds, rosters := buildField(teams)
	require.Len(t, seeds, 1)
	assert.Equal(t, uint(3), seeds[0].ID)
	assert.Equal(t, "CAP", seeds[0].Abbr)

	roster := rosters[3]
	require.Len(t, roster, 1)
	assert.Equal(t, uint(9), roster[0].PlayerID)
	assert.Equal(t, simulator.PositionQB, roster[0].Position)
	assert.Equal(t, 65, roster[0].Snaps)
	assert.Equal(t, 12.5, roster[0].Fatigue)
}
