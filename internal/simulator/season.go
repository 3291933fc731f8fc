package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// ProgressUpdate reports simulation progress to observers (websocket hub,
// logs). Sent on a caller-supplied channel, never blocking the simulation.
type ProgressUpdate struct {
	Type           string    `json:"type"`
	Week           int       `json:"week"`
	Message        string    `json:"message"`
	GamesCompleted int       `json:"games_completed"`
	TotalGames     int       `json:"total_games"`
	Timestamp      time.Time `json:"timestamp"`
}

// Recap is free-text narrative produced by an external collaborator. The
// engine passes it through without validation.
type Recap struct {
	Summary string
	Facts   map[string]interface{}
}

// RecapContext is the game summary handed to the narrative collaborator.
type RecapContext struct {
	HomeTeam        string
	AwayTeam        string
	HomeScore       int
	AwayScore       int
	Headline        string
	KeyPlayers      []StatLine
	ProgressSummary string
	RemainingTasks  string
}

// Recapper generates a narrative recap for a completed game.
type Recapper interface {
	GenerateGameRecap(ctx context.Context, rc RecapContext) (Recap, error)
}

// SeasonConfig carries the optional collaborators for a season run.
type SeasonConfig struct {
	// Seed drives all scheduling and per-game seeds for the run.
	Seed int64
	// InjuryEngine enables fatigue/injury modelling; requires Rosters.
	InjuryEngine *InjuryEngine
	// Rosters maps team id to its participation records. The simulator owns
	// a copy; entries are mutated in place across weeks.
	Rosters map[uint][]*PlayerParticipation
	// Coaching supplies an optional external rating delta per team.
	Coaching CoachingModifier
	// Recapper generates narrative recaps when set.
	Recapper Recapper
	Logger   *logrus.Logger
	// Parallel runs the pure game simulations of one week concurrently.
	// Seeds are drawn before the fork so output matches the serial path.
	Parallel bool
}

// SeasonSimulator sequences scheduling, game simulation, injuries and
// standings for one regular season.
type SeasonSimulator struct {
	teams    []TeamSeed
	teamByID map[uint]TeamSeed
	schedule [][]Matchup

	rng      *rand.Rand
	injuries *InjuryEngine
	rosters  map[uint][]*PlayerParticipation
	coaching CoachingModifier
	recapper Recapper
	logger   *logrus.Logger
	parallel bool

	standings     map[uint]*TeamStanding
	headToHead    map[[2]uint]map[uint]int
	playerStats   map[uint][]PlayerStatLine
	games         []GameLog
	injuryHistory []InjuryEvent
	totalGames    int
}

// NewSeasonSimulator builds a simulator over the given teams with a
// circle-method round-robin schedule.
func NewSeasonSimulator(teams []TeamSeed, cfg SeasonConfig) (*SeasonSimulator, error) {
	if len(teams) == 0 {
		return nil, ErrNoTeams
	}
	if cfg.InjuryEngine != nil && cfg.Rosters == nil {
		return nil, ErrRosterRequired
	}

	ids := make([]uint, 0, len(teams))
	byID := make(map[uint]TeamSeed, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
		byID[team.ID] = team
	}
	schedule, err := BuildRoundRobin(ids)
	if err != nil {
		return nil, err
	}

	s := &SeasonSimulator{
		teams:       teams,
		teamByID:    byID,
		schedule:    schedule,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		injuries:    cfg.InjuryEngine,
		coaching:    cfg.Coaching,
		recapper:    cfg.Recapper,
		logger:      cfg.Logger,
		parallel:    cfg.Parallel,
		standings:   make(map[uint]*TeamStanding, len(teams)),
		headToHead:  make(map[[2]uint]map[uint]int),
		playerStats: make(map[uint][]PlayerStatLine, len(teams)),
	}
	s.rosters = copyRosters(teams, cfg.Rosters)
	for _, team := range teams {
		s.standings[team.ID] = &TeamStanding{}
		s.playerStats[team.ID] = nil
	}
	for _, week := range schedule {
		s.totalGames += len(week)
	}
	return s, nil
}

// copyRosters deep-copies participation records so the simulator owns the
// mutable state for the run.
func copyRosters(teams []TeamSeed, rosters map[uint][]*PlayerParticipation) map[uint][]*PlayerParticipation {
	owned := make(map[uint][]*PlayerParticipation, len(teams))
	for _, team := range teams {
		source := rosters[team.ID]
		copied := make([]*PlayerParticipation, 0, len(source))
		for _, participant := range source {
			clone := *participant
			copied = append(copied, &clone)
		}
		owned[team.ID] = copied
	}
	return owned
}

// Schedule returns the season's weekly matchups.
func (s *SeasonSimulator) Schedule() [][]Matchup {
	return s.schedule
}

// Games returns all completed regular-season game logs.
func (s *SeasonSimulator) Games() []GameLog {
	return s.games
}

// Injuries returns every injury recorded during the run.
func (s *SeasonSimulator) Injuries() []InjuryEvent {
	return append([]InjuryEvent(nil), s.injuryHistory...)
}

// Rosters exposes the simulator-owned participation state, keyed by team id.
func (s *SeasonSimulator) Rosters() map[uint][]*PlayerParticipation {
	return s.rosters
}

// Standing returns a snapshot of one team's record.
func (s *SeasonSimulator) Standing(teamID uint) (TeamStanding, error) {
	standing, ok := s.standings[teamID]
	if !ok {
		return TeamStanding{}, fmt.Errorf("standing for team %d: %w", teamID, ErrUnknownTeam)
	}
	return *standing, nil
}

// Standings returns a snapshot of every team's record.
func (s *SeasonSimulator) Standings() map[uint]TeamStanding {
	snapshot := make(map[uint]TeamStanding, len(s.standings))
	for id, standing := range s.standings {
		snapshot[id] = *standing
	}
	return snapshot
}

// SimulateSeason plays every scheduled week in order. Progress updates are
// sent on the optional channel.
func (s *SeasonSimulator) SimulateSeason(ctx context.Context, progress chan<- ProgressUpdate) ([]GameLog, error) {
	for weekIndex, matchups := range s.schedule {
		week := weekIndex + 1
		if err := s.SimulateWeek(ctx, week, matchups); err != nil {
			return nil, err
		}
		s.sendProgress(progress, ProgressUpdate{
			Type:           "season",
			Week:           week,
			Message:        fmt.Sprintf("Completed week %d/%d", week, len(s.schedule)),
			GamesCompleted: len(s.games),
			TotalGames:     s.totalGames,
			Timestamp:      time.Now().UTC(),
		})
	}
	return s.games, nil
}

// SimulateWeek plays one week's matchups, applies injuries, updates standings
// and finishes with a rest week. Teams never appear twice in one week, so the
// pure game simulations are safe to fan out.
func (s *SeasonSimulator) SimulateWeek(ctx context.Context, week int, matchups []Matchup) error {
	type pending struct {
		matchup Matchup
		seed    int64
		result  GameLog
	}

	jobs := make([]pending, len(matchups))
	for i, matchup := range matchups {
		// Seeds come off the season RNG before any fork so parallel and
		// serial execution produce identical games.
		jobs[i] = pending{matchup: matchup, seed: int64(s.rng.Intn(1_000_000))}
	}

	runGame := func(job *pending) error {
		home, ok := s.teamByID[job.matchup.HomeID]
		if !ok {
			return fmt.Errorf("matchup home team %d: %w", job.matchup.HomeID, ErrUnknownTeam)
		}
		away, ok := s.teamByID[job.matchup.AwayID]
		if !ok {
			return fmt.Errorf("matchup away team %d: %w", job.matchup.AwayID, ErrUnknownTeam)
		}
		homeRating := s.adjustedRating(home)
		awayRating := s.adjustedRating(away)
		job.result = SimulateGame(
			home.ID, away.ID,
			homeRating, awayRating,
			job.seed,
			s.rosters[home.ID], s.rosters[away.ID],
		)
		return nil
	}

	if s.parallel && len(jobs) > 1 {
		errs := make([]error, len(jobs))
		done := make(chan int, len(jobs))
		for i := range jobs {
			go func(i int) {
				errs[i] = runGame(&jobs[i])
				done <- i
			}(i)
		}
		for range jobs {
			<-done
		}
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	} else {
		for i := range jobs {
			if err := runGame(&jobs[i]); err != nil {
				return err
			}
		}
	}

	for i := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job := &jobs[i]
		result := job.result
		result.Week = week

		if s.recapper != nil {
			recap, err := s.recapper.GenerateGameRecap(ctx, s.recapContext(week, i+1, len(matchups), result))
			if err != nil {
				if s.logger != nil {
					s.logger.WithFields(logrus.Fields{
						"week":  week,
						"home":  result.HomeTeamID,
						"away":  result.AwayTeamID,
						"error": err,
					}).Warn("Narrative recap failed, keeping engine headline")
				}
			} else {
				result.Recap = recap.Summary
			}
		}

		if s.injuries != nil {
			events := s.injuries.SimulateGame(result.HomeTeamID, s.rosters[result.HomeTeamID])
			events = append(events, s.injuries.SimulateGame(result.AwayTeamID, s.rosters[result.AwayTeamID])...)
			for j := range events {
				events[j].Week = week
			}
			result.Injuries = events
			s.injuryHistory = append(s.injuryHistory, events...)
		}

		s.recordGame(result)
	}

	// Synchronization barrier: recovery must complete before the next week
	// reads roster state.
	if s.injuries != nil && len(matchups) > 0 {
		s.injuries.RestWeek(s.rosters)
	}
	return nil
}

// adjustedRating applies the availability penalty and coaching delta to a
// team's base rating, floored at 1.
func (s *SeasonSimulator) adjustedRating(team TeamSeed) float64 {
	rating := team.Rating
	if s.injuries != nil {
		rating -= s.injuries.TeamAvailabilityPenalty(s.rosters[team.ID])
	}
	if s.coaching != nil {
		rating += s.coaching(team.ID)
	}
	if rating < 1.0 {
		rating = 1.0
	}
	return rating
}

func (s *SeasonSimulator) recapContext(week, matchupIndex, gamesInWeek int, result GameLog) RecapContext {
	home := s.teamByID[result.HomeTeamID]
	away := s.teamByID[result.AwayTeamID]
	keyPlayers := make([]StatLine, 0, len(result.HomeStats)+len(result.AwayStats))
	keyPlayers = append(keyPlayers, result.HomeStats...)
	keyPlayers = append(keyPlayers, result.AwayStats...)
	remaining := s.totalGames - len(s.games) - 1
	if remaining < 0 {
		remaining = 0
	}
	return RecapContext{
		HomeTeam:   home.Name,
		AwayTeam:   away.Name,
		HomeScore:  result.HomeScore,
		AwayScore:  result.AwayScore,
		Headline:   result.Headline,
		KeyPlayers: keyPlayers,
		ProgressSummary: fmt.Sprintf("Simulating week %d matchup %d of %d",
			week, matchupIndex, gamesInWeek),
		RemainingTasks: fmt.Sprintf("%d games left overall", remaining),
	}
}

func (s *SeasonSimulator) recordGame(result GameLog) {
	s.standings[result.HomeTeamID].RecordResult(result.HomeScore, result.AwayScore)
	s.standings[result.AwayTeamID].RecordResult(result.AwayScore, result.HomeScore)

	key := pairKey(result.HomeTeamID, result.AwayTeamID)
	series, ok := s.headToHead[key]
	if !ok {
		series = make(map[uint]int, 2)
		s.headToHead[key] = series
	}
	if result.HomeScore > result.AwayScore {
		series[result.HomeTeamID]++
	} else if result.AwayScore > result.HomeScore {
		series[result.AwayTeamID]++
	}

	for _, stat := range result.HomeStats {
		s.playerStats[result.HomeTeamID] = append(s.playerStats[result.HomeTeamID], PlayerStatLine{
			Player: stat.Name, Summary: stat.Line, Week: result.Week,
		})
	}
	for _, stat := range result.AwayStats {
		s.playerStats[result.AwayTeamID] = append(s.playerStats[result.AwayTeamID], PlayerStatLine{
			Player: stat.Name, Summary: stat.Line, Week: result.Week,
		})
	}

	s.games = append(s.games, result)
}

// PlayerStats returns the accumulated per-team stat lines.
func (s *SeasonSimulator) PlayerStats() map[uint][]PlayerStatLine {
	return s.playerStats
}

func pairKey(a, b uint) [2]uint {
	if a < b {
		return [2]uint{a, b}
	}
	return [2]uint{b, a}
}

func (s *SeasonSimulator) headToHeadWins(teamID uint, peers []uint) int {
	wins := 0
	for _, opponent := range peers {
		if opponent == teamID {
			continue
		}
		if series, ok := s.headToHead[pairKey(teamID, opponent)]; ok {
			wins += series[teamID]
		}
	}
	return wins
}

type rankingKey struct {
	winPct     float64
	headToHead int
	pointDiff  int
	pointsFor  int
	wins       int
}

func (k rankingKey) betterThan(other rankingKey) bool {
	if k.winPct != other.winPct {
		return k.winPct > other.winPct
	}
	if k.headToHead != other.headToHead {
		return k.headToHead > other.headToHead
	}
	if k.pointDiff != other.pointDiff {
		return k.pointDiff > other.pointDiff
	}
	if k.pointsFor != other.pointsFor {
		return k.pointsFor > other.pointsFor
	}
	return k.wins > other.wins
}

// RankedTeamIDs orders teams by record with head-to-head, point differential
// and points-for tiebreaks. Teams still tied after every criterion are
// shuffled (a coin flip, drawn from the season RNG).
func (s *SeasonSimulator) RankedTeamIDs() []uint {
	ids := make([]uint, 0, len(s.teams))
	for _, team := range s.teams {
		ids = append(ids, team.ID)
	}

	keys := make(map[uint]rankingKey, len(ids))
	for _, id := range ids {
		standing := s.standings[id]
		keys[id] = rankingKey{
			winPct:     standing.WinPercentage(),
			headToHead: s.headToHeadWins(id, ids),
			pointDiff:  standing.PointDifferential(),
			pointsFor:  standing.PointsFor,
			wins:       standing.Wins,
		}
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return keys[ids[i]].betterThan(keys[ids[j]])
	})

	// Shuffle runs of exact ties.
	ranked := make([]uint, 0, len(ids))
	for start := 0; start < len(ids); {
		end := start + 1
		for end < len(ids) && keys[ids[end]] == keys[ids[start]] {
			end++
		}
		group := ids[start:end]
		if len(group) > 1 {
			s.rng.Shuffle(len(group), func(a, b int) {
				group[a], group[b] = group[b], group[a]
			})
		}
		ranked = append(ranked, group...)
		start = end
	}
	return ranked
}

// PlayoffSeeds builds a seeded bracket field from the current standings.
// count must be a power of two no larger than the league size.
func (s *SeasonSimulator) PlayoffSeeds(count int) ([]PlayoffSeed, error) {
	if count < 2 {
		return nil, ErrTooFewSeeds
	}
	if !isPowerOfTwo(count) {
		return nil, ErrBracketSize
	}
	ranked := s.RankedTeamIDs()
	if count > len(ranked) {
		return nil, fmt.Errorf("%w: %d seeds requested from %d teams", ErrBracketSize, count, len(ranked))
	}
	seeds := make([]PlayoffSeed, 0, count)
	for i, teamID := range ranked[:count] {
		team := s.teamByID[teamID]
		standing := s.standings[teamID]
		seeds = append(seeds, PlayoffSeed{
			Seed:          i + 1,
			TeamID:        teamID,
			Name:          team.Name,
			Abbr:          team.Abbr,
			Rating:        team.Rating,
			Wins:          standing.Wins,
			Losses:        standing.Losses,
			Ties:          standing.Ties,
			PointsFor:     standing.PointsFor,
			PointsAgainst: standing.PointsAgainst,
		})
	}
	return seeds, nil
}

func (s *SeasonSimulator) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
