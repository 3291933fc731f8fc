package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// PlayoffSeed is a seeded playoff team with its regular-season record.
type PlayoffSeed struct {
	Seed          int     `json:"seed"`
	TeamID        uint    `json:"team_id"`
	Name          string  `json:"name"`
	Abbr          string  `json:"abbr"`
	Rating        float64 `json:"rating"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
}

// PlayoffGameLog is the result of a single playoff matchup.
type PlayoffGameLog struct {
	RoundNumber int           `json:"round_number"`
	RoundName   string        `json:"round_name"`
	Matchup     int           `json:"matchup"`
	HomeSeed    PlayoffSeed   `json:"home_seed"`
	AwaySeed    PlayoffSeed   `json:"away_seed"`
	HomeScore   int           `json:"home_score"`
	AwayScore   int           `json:"away_score"`
	WinProb     float64       `json:"win_prob"`
	Headline    string        `json:"headline"`
	Drives      []Drive       `json:"drives"`
	HomeStats   []StatLine    `json:"home_stats"`
	AwayStats   []StatLine    `json:"away_stats"`
	Injuries    []InjuryEvent `json:"injuries,omitempty"`
	WinnerSeed  PlayoffSeed   `json:"winner_seed"`
	Recap       string        `json:"recap,omitempty"`
}

// PlayoffConfig carries the optional collaborators for a bracket run.
type PlayoffConfig struct {
	Seed         int64
	InjuryEngine *InjuryEngine
	Rosters      map[uint][]*PlayerParticipation
	Coaching     CoachingModifier
	Recapper     Recapper
	Logger       *logrus.Logger
}

// PlayoffSimulator resolves a single-elimination bracket built on the core
// game engine.
type PlayoffSimulator struct {
	seeds    []PlayoffSeed
	rng      *rand.Rand
	injuries *InjuryEngine
	rosters  map[uint][]*PlayerParticipation
	coaching CoachingModifier
	recapper Recapper
	logger   *logrus.Logger
	games    []PlayoffGameLog
}

// NewPlayoffSimulator validates the field and prepares a bracket run. The
// seed count must be a power of two of at least two, and seed numbers must be
// a permutation of 1..N.
func NewPlayoffSimulator(seeds []PlayoffSeed, cfg PlayoffConfig) (*PlayoffSimulator, error) {
	if len(seeds) < 2 {
		return nil, ErrTooFewSeeds
	}
	if !isPowerOfTwo(len(seeds)) {
		return nil, ErrBracketSize
	}

	ordered := append([]PlayoffSeed(nil), seeds...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Seed < ordered[j].Seed
	})
	for i, seed := range ordered {
		if seed.Seed != i+1 {
			return nil, fmt.Errorf("%w: got seed %d at rank %d", ErrSeedPermutation, seed.Seed, i+1)
		}
	}

	rosters := make(map[uint][]*PlayerParticipation, len(ordered))
	for _, seed := range ordered {
		rosters[seed.TeamID] = cfg.Rosters[seed.TeamID]
	}

	return &PlayoffSimulator{
		seeds:    ordered,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		injuries: cfg.InjuryEngine,
		rosters:  rosters,
		coaching: cfg.Coaching,
		recapper: cfg.Recapper,
		logger:   cfg.Logger,
	}, nil
}

func isPowerOfTwo(value int) bool {
	return value > 0 && value&(value-1) == 0
}

// RoundName names a playoff round by the number of teams remaining.
func RoundName(teamsRemaining int) string {
	switch teamsRemaining {
	case 2:
		return "Championship"
	case 4:
		return "Semifinals"
	case 8:
		return "Quarterfinals"
	case 16:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round of %d", teamsRemaining)
	}
}

// Simulate runs the bracket to completion, with a rest week between rounds.
func (p *PlayoffSimulator) Simulate(ctx context.Context, progress chan<- ProgressUpdate) ([]PlayoffGameLog, error) {
	current := append([]PlayoffSeed(nil), p.seeds...)
	roundNumber := 1
	expectedGames := len(p.seeds) - 1

	for len(current) > 1 {
		roundName := RoundName(len(current))
		matchups := pairMatchups(current)
		winners := make([]PlayoffSeed, 0, len(matchups))

		for matchupIndex, pair := range matchups {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			game := p.playGame(ctx, roundNumber, roundName, matchupIndex+1, pair[0], pair[1])
			winners = append(winners, game.WinnerSeed)
			p.games = append(p.games, game)

			if progress != nil {
				select {
				case progress <- ProgressUpdate{
					Type:           "playoffs",
					Week:           roundNumber,
					Message:        fmt.Sprintf("%s: %s vs %s final", roundName, pair[0].Abbr, pair[1].Abbr),
					GamesCompleted: len(p.games),
					TotalGames:     expectedGames,
					Timestamp:      time.Now().UTC(),
				}:
				default:
				}
			}
		}

		if p.injuries != nil {
			p.injuries.RestWeek(p.rosters)
		}

		sort.Slice(winners, func(i, j int) bool {
			return winners[i].Seed < winners[j].Seed
		})
		current = winners
		roundNumber++
	}

	return append([]PlayoffGameLog(nil), p.games...), nil
}

// Games returns the completed playoff game logs.
func (p *PlayoffSimulator) Games() []PlayoffGameLog {
	return append([]PlayoffGameLog(nil), p.games...)
}

// Champion returns the winner of the final game. It is a state error to call
// this before any round has been simulated.
func (p *PlayoffSimulator) Champion() (PlayoffSeed, error) {
	if len(p.games) == 0 {
		return PlayoffSeed{}, ErrNoGamesSimulated
	}
	final := p.games[0]
	for _, game := range p.games[1:] {
		if game.RoundNumber > final.RoundNumber {
			final = game
		}
	}
	return final.WinnerSeed, nil
}

// pairMatchups pairs the best remaining seed with the worst, second-best with
// second-worst, and so on. Seeds are assumed sorted ascending.
func pairMatchups(seeds []PlayoffSeed) [][2]PlayoffSeed {
	total := len(seeds)
	pairings := make([][2]PlayoffSeed, 0, total/2)
	for i := 0; i < total/2; i++ {
		pairings = append(pairings, [2]PlayoffSeed{seeds[i], seeds[total-i-1]})
	}
	return pairings
}

// playGame resolves one playoff matchup. The higher seed hosts; ratings are
// reduced by accumulated availability penalties and adjusted by the coaching
// delta. Ties go to the higher seed via home_score >= away_score -- there is
// no overtime model.
func (p *PlayoffSimulator) playGame(ctx context.Context, roundNumber int, roundName string, matchupIndex int, higher, lower PlayoffSeed) PlayoffGameLog {
	homeRating := p.ratingFor(higher)
	awayRating := p.ratingFor(lower)

	seed := int64(p.rng.Intn(1_000_000))
	result := SimulateGame(
		higher.TeamID, lower.TeamID,
		homeRating, awayRating,
		seed,
		p.rosters[higher.TeamID], p.rosters[lower.TeamID],
	)

	winner := higher
	if result.AwayScore > result.HomeScore {
		winner = lower
	}

	game := PlayoffGameLog{
		RoundNumber: roundNumber,
		RoundName:   roundName,
		Matchup:     matchupIndex,
		HomeSeed:    higher,
		AwaySeed:    lower,
		HomeScore:   result.HomeScore,
		AwayScore:   result.AwayScore,
		WinProb:     result.WinProb,
		Headline:    result.Headline,
		Drives:      result.Drives,
		HomeStats:   result.HomeStats,
		AwayStats:   result.AwayStats,
		WinnerSeed:  winner,
	}

	if p.injuries != nil {
		events := p.injuries.SimulateGame(higher.TeamID, p.rosters[higher.TeamID])
		events = append(events, p.injuries.SimulateGame(lower.TeamID, p.rosters[lower.TeamID])...)
		game.Injuries = events
	}

	if p.recapper != nil {
		keyPlayers := make([]StatLine, 0, len(result.HomeStats)+len(result.AwayStats))
		keyPlayers = append(keyPlayers, result.HomeStats...)
		keyPlayers = append(keyPlayers, result.AwayStats...)
		recap, err := p.recapper.GenerateGameRecap(ctx, RecapContext{
			HomeTeam:        higher.Name,
			AwayTeam:        lower.Name,
			HomeScore:       result.HomeScore,
			AwayScore:       result.AwayScore,
			Headline:        result.Headline,
			KeyPlayers:      keyPlayers,
			ProgressSummary: fmt.Sprintf("Completed %s game %d", roundName, matchupIndex),
			RemainingTasks:  fmt.Sprintf("%d playoff games remaining", len(p.seeds)-1-len(p.games)-1),
		})
		if err != nil {
			if p.logger != nil {
				p.logger.WithFields(logrus.Fields{
					"round": roundName,
					"home":  higher.Abbr,
					"away":  lower.Abbr,
					"error": err,
				}).Warn("Narrative recap failed, keeping engine headline")
			}
		} else {
			game.Recap = recap.Summary
		}
	}

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"round":   roundName,
			"matchup": matchupIndex,
			"home":    higher.Abbr,
			"away":    lower.Abbr,
			"score":   fmt.Sprintf("%d-%d", result.HomeScore, result.AwayScore),
			"winner":  winner.Abbr,
		}).Debug("Playoff game complete")
	}

	return game
}

func (p *PlayoffSimulator) ratingFor(seed PlayoffSeed) float64 {
	rating := seed.Rating
	if p.injuries != nil {
		rating -= p.injuries.TeamAvailabilityPenalty(p.rosters[seed.TeamID])
	}
	if p.coaching != nil {
		rating += p.coaching(seed.TeamID)
	}
	if rating < 1.0 {
		rating = 1.0
	}
	return rating
}
