package simulator

import (
	"fmt"
	"math"
	"math/rand"
)

// Drive outcome distribution: TD, FG, punt, turnover.
var driveOutcomes = []DriveOutcome{DriveTouchdown, DriveFieldGoal, DrivePunt, DriveTurnover}
var driveWeights = []float64{0.25, 0.20, 0.40, 0.15}

const targetCombinedPoints = 45.0

// SimulateGame produces the full log of one game from two team ratings. All
// randomness derives from the caller-supplied seed, so identical inputs yield
// byte-identical logs; no global generator state is read or mutated.
func SimulateGame(homeID, awayID uint, homeRating, awayRating float64, seed int64, homeRoster, awayRoster []*PlayerParticipation) GameLog {
	rng := rand.New(rand.NewSource(seed))

	prob := WinProbability(homeRating, awayRating, DefaultHomeFieldAdvantage)
	homeScore := int(math.Round(targetCombinedPoints*prob + gauss(rng, 0, 6)))
	if homeScore < 6 {
		homeScore = 6
	}
	awayScore := int(math.Round(targetCombinedPoints*(1-prob) + gauss(rng, 0, 6)))
	if awayScore < 3 {
		awayScore = 3
	}

	totalDrives := randInt(rng, 20, 26)
	drives := make([]Drive, 0, totalDrives+2)
	homeScored, awayScored := 0, 0
	for i := 0; i < totalDrives; i++ {
		side := SideHome
		if i%2 == 1 {
			side = SideAway
		}
		drive := generateDrive(rng, side)
		if side == SideHome {
			homeScored += drive.Result.Points()
		} else {
			awayScored += drive.Result.Points()
		}
		drives = append(drives, drive)
	}

	// Reconcile drive scoring against the target with a late field goal for
	// whichever side came up short.
	if homeScore > homeScored {
		drives = append(drives, Drive{Side: SideHome, Result: DriveFieldGoal, Yards: 38, Minutes: 1.1})
	}
	if awayScore > awayScored {
		drives = append(drives, Drive{Side: SideAway, Result: DriveFieldGoal, Yards: 34, Minutes: 1.0})
	}

	return GameLog{
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		WinProb:    prob,
		Drives:     drives,
		Headline:   headline(homeScore, awayScore),
		HomeStats:  playerLines(rng, "Home", homeRoster),
		AwayStats:  playerLines(rng, "Away", awayRoster),
	}
}

func generateDrive(rng *rand.Rand, side Side) Drive {
	result := driveOutcomes[weightedPick(rng, driveWeights)]
	yards := int(gauss(rng, 32, 18))
	if yards < 0 {
		yards = 0
	}
	minutes := gauss(rng, 2.8, 0.9)
	if minutes < 1.0 {
		minutes = 1.0
	}
	return Drive{
		Side:    side,
		Result:  result,
		Yards:   yards,
		Minutes: math.Round(minutes*10) / 10,
	}
}

func headline(homeScore, awayScore int) string {
	margin := homeScore - awayScore
	if margin < 0 {
		margin = -margin
	}
	switch {
	case margin <= 3:
		return "Nail-biter comes down to the final drive"
	case margin >= 17:
		return "Statement win in all three phases"
	default:
		return "Solid all-around performance"
	}
}

// pickParticipant returns the first roster member at the position, or the
// fallback (best available) when the position is thin.
func pickParticipant(roster []*PlayerParticipation, position Position, fallback *PlayerParticipation) *PlayerParticipation {
	if len(roster) == 0 {
		return fallback
	}
	for _, participant := range roster {
		if participant.Position == position {
			return participant
		}
	}
	if fallback != nil {
		return fallback
	}
	return roster[0]
}

func playerLines(rng *rand.Rand, prefix string, roster []*PlayerParticipation) []StatLine {
	if len(roster) == 0 {
		return fallbackLines(rng, prefix)
	}

	best := roster[0]
	lines := make([]StatLine, 0, 5)
	for _, role := range []Position{PositionQB, PositionRB, PositionWR} {
		participant := pickParticipant(roster, role, best)
		if participant == nil {
			continue
		}
		name := participant.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", participant.PlayerID)
		}
		lines = append(lines, StatLine{
			PlayerID: participant.PlayerID,
			Name:     name,
			Line:     statSummary(rng, role),
		})
	}

	// Defensive and kicking lines only when the roster actually carries the
	// position; no best-available fallback for specialists.
	for _, role := range []Position{PositionEDGE, PositionK} {
		participant := pickParticipant(roster, role, nil)
		if participant == nil || participant.Position != role {
			continue
		}
		name := participant.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", participant.PlayerID)
		}
		lines = append(lines, StatLine{
			PlayerID: participant.PlayerID,
			Name:     name,
			Line:     statSummary(rng, role),
		})
	}

	if len(lines) == 0 {
		return fallbackLines(rng, prefix)
	}
	return lines
}

func statSummary(rng *rand.Rand, role Position) string {
	switch role {
	case PositionQB:
		completions := triangularInt(rng, 18, 24, 30)
		attempts := completions + triangularInt(rng, 6, 10, 14)
		yards := triangularInt(rng, 210, 280, 345)
		touchdowns := triangularInt(rng, 1, 2, 4)
		return fmt.Sprintf("%d/%d for %d yds and %d TDs", completions, attempts, yards, touchdowns)
	case PositionRB:
		carries := triangularInt(rng, 12, 18, 24)
		yards := triangularInt(rng, 45, 85, 130)
		return fmt.Sprintf("%d carries for %d yds", carries, yards)
	case PositionWR:
		catches := triangularInt(rng, 5, 7, 10)
		yards := triangularInt(rng, 70, 110, 160)
		return fmt.Sprintf("%d catches for %d yds", catches, yards)
	case PositionEDGE:
		sacks := triangularInt(rng, 0, 1, 4)
		tackles := triangularInt(rng, 2, 5, 9)
		return fmt.Sprintf("%d tackles and %d sacks", tackles, sacks)
	case PositionK:
		made := triangularInt(rng, 1, 2, 4)
		attempts := made + triangularInt(rng, 0, 0, 1)
		return fmt.Sprintf("%d/%d FGs", made, attempts)
	default:
		tackles := triangularInt(rng, 2, 5, 9)
		return fmt.Sprintf("%d tackles", tackles)
	}
}

func fallbackLines(rng *rand.Rand, prefix string) []StatLine {
	return []StatLine{
		{PlayerID: 0, Name: prefix + " QB", Line: statSummary(rng, PositionQB)},
		{PlayerID: 0, Name: prefix + " RB", Line: statSummary(rng, PositionRB)},
		{PlayerID: 0, Name: prefix + " WR", Line: statSummary(rng, PositionWR)},
	}
}
