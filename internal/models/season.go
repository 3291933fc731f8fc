package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Season run lifecycle states.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Game stages.
const (
	StageRegular    = "regular"
	StagePostseason = "postseason"
)

// SeasonRun is one complete simulation run, identified by UUID so reruns of
// the same year never collide.
type SeasonRun struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Year           int       `gorm:"index;not null" json:"year"`
	Seed           int64     `gorm:"not null" json:"seed"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	TeamCount      int       `json:"team_count"`
	Weeks          int       `json:"weeks"`
	ChampionTeamID *uint     `json:"champion_team_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (SeasonRun) TableName() string {
	return "season_runs"
}

// GameRecord persists one game log. Drives and stat lines are stored as JSON
// documents; key player names are denormalized for quick headline queries.
type GameRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RunID      string         `gorm:"type:uuid;index;not null" json:"run_id"`
	Week       int            `gorm:"not null" json:"week"`
	Stage      string         `gorm:"size:16;not null;default:regular;index" json:"stage"`
	RoundName  string         `gorm:"size:32" json:"round_name,omitempty"`
	HomeTeamID uint           `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID uint           `gorm:"index;not null" json:"away_team_id"`
	HomeScore  int            `gorm:"not null" json:"home_score"`
	AwayScore  int            `gorm:"not null" json:"away_score"`
	WinProb    float64        `json:"win_prob"`
	Headline   string         `json:"headline"`
	Recap      string         `json:"recap,omitempty"`
	Drives     datatypes.JSON `json:"drives"`
	HomeStats  datatypes.JSON `json:"home_stats"`
	AwayStats  datatypes.JSON `json:"away_stats"`
	KeyPlayers pq.StringArray `gorm:"type:text[]" json:"key_players"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (GameRecord) TableName() string {
	return "game_records"
}

// StandingRecord is a team's final regular-season record for one run.
type StandingRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RunID         string    `gorm:"type:uuid;index;not null" json:"run_id"`
	TeamID        uint      `gorm:"index;not null" json:"team_id"`
	Rank          int       `gorm:"not null" json:"rank"`
	Wins          int       `gorm:"not null" json:"wins"`
	Losses        int       `gorm:"not null" json:"losses"`
	Ties          int       `gorm:"not null" json:"ties"`
	PointsFor     int       `gorm:"not null" json:"points_for"`
	PointsAgainst int       `gorm:"not null" json:"points_against"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StandingRecord) TableName() string {
	return "standing_records"
}

// InjuryRecord persists one injury event from a run.
type InjuryRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	RunID              string    `gorm:"type:uuid;index;not null" json:"run_id"`
	TeamID             uint      `gorm:"index;not null" json:"team_id"`
	PlayerID           uint      `gorm:"index;not null" json:"player_id"`
	Severity           string    `gorm:"size:16;not null" json:"severity"`
	WeeksOut           int       `gorm:"not null" json:"weeks_out"`
	OccurredSnap       int       `json:"occurred_snap"`
	InjuryType         string    `json:"injury_type"`
	Week               int       `gorm:"not null" json:"week"`
	Season             int       `json:"season"`
	ExpectedReturnWeek int       `json:"expected_return_week"`
	CreatedAt          time.Time `json:"created_at"`
}

func (InjuryRecord) TableName() string {
	return "injury_records"
}
