package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dkowalski/gridiron-gm/internal/models"
	"github.com/dkowalski/gridiron-gm/internal/simulator"
	"github.com/dkowalski/gridiron-gm/pkg/config"
	"github.com/dkowalski/gridiron-gm/pkg/database"
)

// FranchiseService orchestrates full season runs: it loads the league from
// the database, drives the simulation engine, persists the results and
// broadcasts progress to websocket subscribers.
type FranchiseService struct {
	db       *database.DB
	cache    *CacheService
	hub      *WebSocketHub
	cfg      *config.Config
	logger   *logrus.Logger
	recapper simulator.Recapper
}

func NewFranchiseService(db *database.DB, cache *CacheService, hub *WebSocketHub, cfg *config.Config, logger *logrus.Logger, recapper simulator.Recapper) *FranchiseService {
	return &FranchiseService{
		db:       db,
		cache:    cache,
		hub:      hub,
		cfg:      cfg,
		logger:   logger,
		recapper: recapper,
	}
}

// StandingView is a standings row enriched with team identity for display.
type StandingView struct {
	Rank          int    `json:"rank"`
	TeamID        uint   `json:"team_id"`
	Name          string `json:"name"`
	Abbr          string `json:"abbr"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Ties          int    `json:"ties"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
	PointDiff     int    `json:"point_diff"`
}

// ListTeams returns every franchise, cached briefly since ratings only move
// when a run completes.
func (s *FranchiseService) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if s.cache != nil {
		if err := s.cache.Get(ctx, TeamsCacheKey(), &teams); err == nil {
			return teams, nil
		}
	}
	if err := s.db.WithContext(ctx).Order("rating DESC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, TeamsCacheKey(), teams, time.Duration(s.cfg.StandingsCacheTTL)*time.Second)
	}
	return teams, nil
}

// GetTeam returns one franchise with its roster.
func (s *FranchiseService) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Preload("Players").First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// RunSeason simulates one complete season (regular season plus playoffs) for
// the current league, persists every artifact and returns the finished run.
func (s *FranchiseService) RunSeason(ctx context.Context, year int, seed int64) (*models.SeasonRun, error) {
	var teams []models.Team
	if err := s.db.WithContext(ctx).Preload("Players").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("season requires at least 2 teams, have %d", len(teams))
	}

	teamSeeds, rosters := buildField(teams)

	run := &models.SeasonRun{
		ID:        uuid.NewString(),
		Year:      year,
		Seed:      seed,
		Status:    models.RunStatusRunning,
		TeamCount: len(teams),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create season run: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"year":   year,
		"seed":   seed,
		"teams":  len(teams),
	}).Info("Starting season simulation")

	progress := make(chan simulator.ProgressUpdate, 64)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for update := range progress {
			s.hub.Broadcast("sim_progress", update)
		}
	}()

	injuryEngine := simulator.NewInjuryEngine(rand.New(rand.NewSource(seed)))

	season, err := simulator.NewSeasonSimulator(teamSeeds, simulator.SeasonConfig{
		Seed:         seed,
		InjuryEngine: injuryEngine,
		Rosters:      rosters,
		Recapper:     s.recapper,
		Logger:       s.logger,
		Parallel:     s.cfg.ParallelWeeks,
	})
	if err != nil {
		close(progress)
		<-forwarded
		return nil, s.failRun(run, fmt.Errorf("failed to build season: %w", err))
	}

	games, err := season.SimulateSeason(ctx, progress)
	if err != nil {
		close(progress)
		<-forwarded
		return nil, s.failRun(run, fmt.Errorf("season simulation failed: %w", err))
	}
	run.Weeks = len(season.Schedule())

	bracket := bracketSize(s.cfg.PlayoffSeeds, len(teams))
	seeds, err := season.PlayoffSeeds(bracket)
	if err != nil {
		close(progress)
		<-forwarded
		return nil, s.failRun(run, fmt.Errorf("failed to seed playoffs: %w", err))
	}

	playoffs, err := simulator.NewPlayoffSimulator(seeds, simulator.PlayoffConfig{
		Seed:         seed + 1,
		InjuryEngine: injuryEngine,
		Rosters:      season.Rosters(),
		Recapper:     s.recapper,
		Logger:       s.logger,
	})
	if err != nil {
		close(progress)
		<-forwarded
		return nil, s.failRun(run, fmt.Errorf("failed to build playoffs: %w", err))
	}

	playoffGames, err := playoffs.Simulate(ctx, progress)
	close(progress)
	<-forwarded
	if err != nil {
		return nil, s.failRun(run, fmt.Errorf("playoff simulation failed: %w", err))
	}

	champion, err := playoffs.Champion()
	if err != nil {
		return nil, s.failRun(run, err)
	}

	if err := s.persistRun(ctx, run, season, games, playoffGames, champion, teams); err != nil {
		return nil, s.failRun(run, err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, TeamsCacheKey())
	}
	s.hub.Broadcast("season_complete", map[string]interface{}{
		"run_id":   run.ID,
		"year":     run.Year,
		"champion": champion,
	})

	s.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"champion": champion.Name,
		"games":    len(games) + len(playoffGames),
	}).Info("Season simulation complete")

	return run, nil
}

func (s *FranchiseService) failRun(run *models.SeasonRun, cause error) error {
	run.Status = models.RunStatusFailed
	if err := s.db.Save(run).Error; err != nil {
		s.logger.Errorf("Failed to mark run %s failed: %v", run.ID, err)
	}
	return cause
}

// persistRun writes every artifact of a finished run in one transaction.
func (s *FranchiseService) persistRun(ctx context.Context, run *models.SeasonRun, season *simulator.SeasonSimulator, games []simulator.GameLog, playoffGames []simulator.PlayoffGameLog, champion simulator.PlayoffSeed, teams []models.Team) error {
	regularWeeks := len(season.Schedule())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, game := range games {
			record, err := gameRecord(run.ID, game)
			if err != nil {
				return err
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to save game record: %w", err)
			}
		}

		for _, game := range playoffGames {
			record, err := playoffRecord(run.ID, regularWeeks, game)
			if err != nil {
				return err
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to save playoff record: %w", err)
			}
		}

		ranked := season.RankedTeamIDs()
		for rank, teamID := range ranked {
			standing, err := season.Standing(teamID)
			if err != nil {
				return err
			}
			record := &models.StandingRecord{
				RunID:         run.ID,
				TeamID:        teamID,
				Rank:          rank + 1,
				Wins:          standing.Wins,
				Losses:        standing.Losses,
				Ties:          standing.Ties,
				PointsFor:     standing.PointsFor,
				PointsAgainst: standing.PointsAgainst,
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to save standing record: %w", err)
			}
		}

		for _, event := range season.Injuries() {
			if err := tx.Create(injuryRecord(run, event, event.Week)).Error; err != nil {
				return fmt.Errorf("failed to save injury record: %w", err)
			}
		}
		for _, game := range playoffGames {
			week := regularWeeks + game.RoundNumber
			for _, event := range game.Injuries {
				if err := tx.Create(injuryRecord(run, event, week)).Error; err != nil {
					return fmt.Errorf("failed to save playoff injury record: %w", err)
				}
			}
		}

		ratings := updatedRatings(teams, games, playoffGames)
		for teamID, rating := range ratings {
			if err := tx.Model(&models.Team{}).Where("id = ?", teamID).Update("rating", rating).Error; err != nil {
				return fmt.Errorf("failed to update team rating: %w", err)
			}
		}

		for _, roster := range season.Rosters() {
			for _, participant := range roster {
				err := tx.Model(&models.Player{}).
					Where("id = ?", participant.PlayerID).
					Updates(map[string]interface{}{
						"fatigue":                participant.Fatigue,
						"injury_weeks_remaining": participant.InjuryWeeksRemaining,
					}).Error
				if err != nil {
					return fmt.Errorf("failed to update player state: %w", err)
				}
			}
		}

		run.Status = models.RunStatusCompleted
		championID := champion.TeamID
		run.ChampionTeamID = &championID
		if err := tx.Save(run).Error; err != nil {
			return fmt.Errorf("failed to complete season run: %w", err)
		}
		return nil
	})
}

// GetRun fetches one season run by id.
func (s *FranchiseService) GetRun(ctx context.Context, id string) (*models.SeasonRun, error) {
	var run models.SeasonRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent season runs.
func (s *FranchiseService) ListRuns(ctx context.Context, limit int) ([]models.SeasonRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.SeasonRun
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetStandings returns the final regular-season standings for a run, enriched
// with team identity and served from cache when possible.
func (s *FranchiseService) GetStandings(ctx context.Context, runID string) ([]StandingView, error) {
	cacheKey := StandingsCacheKey(runID)
	var views []StandingView
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &views); err == nil {
			return views, nil
		}
	}

	var records []models.StandingRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("rank ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}
	if len(records) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var teams []models.Team
	if err := s.db.WithContext(ctx).Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	byID := make(map[uint]models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	views = make([]StandingView, 0, len(records))
	for _, record := range records {
		team := byID[record.TeamID]
		views = append(views, StandingView{
			Rank:          record.Rank,
			TeamID:        record.TeamID,
			Name:          team.Name,
			Abbr:          team.Abbr,
			Wins:          record.Wins,
			Losses:        record.Losses,
			Ties:          record.Ties,
			PointsFor:     record.PointsFor,
			PointsAgainst: record.PointsAgainst,
			PointDiff:     record.PointsFor - record.PointsAgainst,
		})
	}

	if s.cache != nil {
		s.cache.SetWithRetry(ctx, cacheKey, views, time.Duration(s.cfg.StandingsCacheTTL)*time.Second, 3)
	}
	return views, nil
}

// GetGames returns a run's game records, optionally filtered by week and
// stage. week <= 0 means all weeks.
func (s *FranchiseService) GetGames(ctx context.Context, runID string, week int, stage string) ([]models.GameRecord, error) {
	query := s.db.WithContext(ctx).Where("run_id = ?", runID)
	if week > 0 {
		query = query.Where("week = ?", week)
	}
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	var records []models.GameRecord
	if err := query.Order("week ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	return records, nil
}

// GetPlayoffGames returns a run's postseason bracket in round order.
func (s *FranchiseService) GetPlayoffGames(ctx context.Context, runID string) ([]models.GameRecord, error) {
	return s.GetGames(ctx, runID, 0, models.StagePostseason)
}

// GetInjuries returns every injury recorded for a run.
func (s *FranchiseService) GetInjuries(ctx context.Context, runID string) ([]models.InjuryRecord, error) {
	var records []models.InjuryRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("week ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch injuries: %w", err)
	}
	return records, nil
}

// buildField converts database rows into the engine's team seeds and
// participation rosters.
func buildField(teams []models.Team) ([]simulator.TeamSeed, map[uint][]*simulator.PlayerParticipation) {
	seeds := make([]simulator.TeamSeed, 0, len(teams))
	rosters := make(map[uint][]*simulator.PlayerParticipation, len(teams))
	for _, team := range teams {
		seeds = append(seeds, simulator.TeamSeed{
			ID:     team.ID,
			Name:   team.Name,
			Abbr:   team.Abbr,
			Rating: team.Rating,
		})
		roster := make([]*simulator.PlayerParticipation, 0, len(team.Players))
		for _, player := range team.Players {
			roster = append(roster, &simulator.PlayerParticipation{
				PlayerID:             player.ID,
				Name:                 player.Name,
				Position:             simulator.Position(player.Position),
				Snaps:                player.SnapsPlanned,
				Fatigue:              player.Fatigue,
				InjuryWeeksRemaining: player.InjuryWeeksRemaining,
			})
		}
		rosters[team.ID] = roster
	}
	return seeds, rosters
}

// bracketSize clamps the configured playoff field to the league size, rounded
// down to a power of two with a floor of 2.
func bracketSize(requested, teamCount int) int {
	size := requested
	if size > teamCount {
		size = teamCount
	}
	bracket := 2
	for bracket*2 <= size {
		bracket *= 2
	}
	return bracket
}

// updatedRatings replays the run's results through the rating system in game
// order, so each update uses the ratings as they stood at kickoff.
func updatedRatings(teams []models.Team, games []simulator.GameLog, playoffGames []simulator.PlayoffGameLog) map[uint]float64 {
	ratings := make(map[uint]float64, len(teams))
	for _, team := range teams {
		ratings[team.ID] = team.Rating
	}

	apply := func(homeID, awayID uint, homeScore, awayScore int) {
		expected := simulator.WinProbability(ratings[homeID], ratings[awayID], simulator.DefaultHomeFieldAdvantage)
		actual := 0.5
		if homeScore > awayScore {
			actual = 1.0
		} else if awayScore > homeScore {
			actual = 0.0
		}
		home := ratings[homeID]
		away := ratings[awayID]
		ratings[homeID] = simulator.ApplyResult(home, expected, actual, simulator.DefaultKFactor)
		ratings[awayID] = simulator.ApplyResult(away, 1.0-expected, 1.0-actual, simulator.DefaultKFactor)
	}

	for _, game := range games {
		apply(game.HomeTeamID, game.AwayTeamID, game.HomeScore, game.AwayScore)
	}
	for _, game := range playoffGames {
		apply(game.HomeSeed.TeamID, game.AwaySeed.TeamID, game.HomeScore, game.AwayScore)
	}
	return ratings
}

func gameRecord(runID string, game simulator.GameLog) (*models.GameRecord, error) {
	drives, err := marshalJSON(game.Drives)
	if err != nil {
		return nil, err
	}
	homeStats, err := marshalJSON(game.HomeStats)
	if err != nil {
		return nil, err
	}
	awayStats, err := marshalJSON(game.AwayStats)
	if err != nil {
		return nil, err
	}
	return &models.GameRecord{
		RunID:      runID,
		Week:       game.Week,
		Stage:      models.StageRegular,
		HomeTeamID: game.HomeTeamID,
		AwayTeamID: game.AwayTeamID,
		HomeScore:  game.HomeScore,
		AwayScore:  game.AwayScore,
		WinProb:    game.WinProb,
		Headline:   game.Headline,
		Recap:      game.Recap,
		Drives:     drives,
		HomeStats:  homeStats,
		AwayStats:  awayStats,
		KeyPlayers: keyPlayerNames(game.HomeStats, game.AwayStats),
	}, nil
}

func playoffRecord(runID string, regularWeeks int, game simulator.PlayoffGameLog) (*models.GameRecord, error) {
	drives, err := marshalJSON(game.Drives)
	if err != nil {
		return nil, err
	}
	homeStats, err := marshalJSON(game.HomeStats)
	if err != nil {
		return nil, err
	}
	awayStats, err := marshalJSON(game.AwayStats)
	if err != nil {
		return nil, err
	}
	return &models.GameRecord{
		RunID:      runID,
		Week:       regularWeeks + game.RoundNumber,
		Stage:      models.StagePostseason,
		RoundName:  game.RoundName,
		HomeTeamID: game.HomeSeed.TeamID,
		AwayTeamID: game.AwaySeed.TeamID,
		HomeScore:  game.HomeScore,
		AwayScore:  game.AwayScore,
		WinProb:    game.WinProb,
		Headline:   game.Headline,
		Recap:      game.Recap,
		Drives:     drives,
		HomeStats:  homeStats,
		AwayStats:  awayStats,
		KeyPlayers: keyPlayerNames(game.HomeStats, game.AwayStats),
	}, nil
}

func injuryRecord(run *models.SeasonRun, event simulator.InjuryEvent, week int) *models.InjuryRecord {
	return &models.InjuryRecord{
		RunID:              run.ID,
		TeamID:             event.TeamID,
		PlayerID:           event.PlayerID,
		Severity:           event.Severity.String(),
		WeeksOut:           event.WeeksOut,
		OccurredSnap:       event.OccurredSnap,
		InjuryType:         event.InjuryType,
		Week:               week,
		Season:             run.Year,
		ExpectedReturnWeek: event.ExpectedReturnWeek(week),
	}
}

func keyPlayerNames(home, away []simulator.StatLine) pq.StringArray {
	names := make(pq.StringArray, 0, len(home)+len(away))
	for _, stat := range home {
		names = append(names, stat.Name)
	}
	for _, stat := range away {
		names = append(names, stat.Name)
	}
	return names
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return datatypes.JSON(data), nil
}
