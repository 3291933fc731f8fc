package simulator

import (
	"encoding/json"
	"fmt"
)

// Side identifies which team a drive belongs to.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// DriveOutcome is the closed set of possession results.
type DriveOutcome int

const (
	DriveTouchdown DriveOutcome = iota
	DriveFieldGoal
	DrivePunt
	DriveTurnover
)

var driveOutcomeNames = map[DriveOutcome]string{
	DriveTouchdown: "TD",
	DriveFieldGoal: "FG",
	DrivePunt:      "Punt",
	DriveTurnover:  "Turnover",
}

func (o DriveOutcome) String() string {
	if name, ok := driveOutcomeNames[o]; ok {
		return name
	}
	return "Unknown"
}

// Points returns how many points the outcome is worth to the possessing team.
func (o DriveOutcome) Points() int {
	switch o {
	case DriveTouchdown:
		return 7
	case DriveFieldGoal:
		return 3
	default:
		return 0
	}
}

func (o DriveOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *DriveOutcome) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for outcome, n := range driveOutcomeNames {
		if n == name {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown drive outcome %q", name)
}

// Drive is a single simulated possession.
type Drive struct {
	Side    Side         `json:"team"`
	Result  DriveOutcome `json:"result"`
	Yards   int          `json:"yards"`
	Minutes float64      `json:"minutes"`
}

// Position is a player's position group.
type Position string

const (
	PositionQB   Position = "QB"
	PositionRB   Position = "RB"
	PositionWR   Position = "WR"
	PositionTE   Position = "TE"
	PositionOL   Position = "OL"
	PositionDL   Position = "DL"
	PositionEDGE Position = "EDGE"
	PositionLB   Position = "LB"
	PositionCB   Position = "CB"
	PositionS    Position = "S"
	PositionK    Position = "K"
	PositionP    Position = "P"
	PositionLS   Position = "LS"
)

// StatLine is a displayable per-player stat summary from one game.
type StatLine struct {
	PlayerID uint   `json:"player_id"`
	Name     string `json:"name"`
	Line     string `json:"line"`
}

// GameLog is the immutable record of one simulated game.
type GameLog struct {
	Week       int           `json:"week"`
	HomeTeamID uint          `json:"home_team_id"`
	AwayTeamID uint          `json:"away_team_id"`
	HomeScore  int           `json:"home_score"`
	AwayScore  int           `json:"away_score"`
	WinProb    float64       `json:"win_prob"`
	Drives     []Drive       `json:"drives"`
	Headline   string        `json:"headline"`
	HomeStats  []StatLine    `json:"home_stats"`
	AwayStats  []StatLine    `json:"away_stats"`
	Injuries   []InjuryEvent `json:"injuries,omitempty"`
	Recap      string        `json:"recap,omitempty"`
}

// TeamSeed is the immutable identity and rating of a team entering a run.
type TeamSeed struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Abbr   string  `json:"abbr"`
	Rating float64 `json:"rating"`
}

// Matchup pairs two team ids for one scheduled game.
type Matchup struct {
	HomeID uint `json:"home_id"`
	AwayID uint `json:"away_id"`
}

// PlayerStatLine is a stat summary tagged with the week it was produced.
type PlayerStatLine struct {
	Player  string `json:"player"`
	Summary string `json:"summary"`
	Week    int    `json:"week"`
}

// CoachingModifier supplies an optional external rating delta for a team,
// typically sourced from the coaching subsystem.
type CoachingModifier func(teamID uint) float64
