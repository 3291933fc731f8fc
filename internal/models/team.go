package models

import "time"

// Team is a franchise with its current Elo-style rating.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Abbr      string    `gorm:"size:4;not null;uniqueIndex" json:"abbr"`
	Rating    float64   `gorm:"not null;default:1500" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Players []Player `gorm:"foreignKey:TeamID" json:"players,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// Player carries the participation state the simulation engine reads and
// writes back after each run.
type Player struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	TeamID               uint      `gorm:"index;not null" json:"team_id"`
	Name                 string    `gorm:"not null" json:"name"`
	Position             string    `gorm:"size:8;not null;index" json:"position"`
	SnapsPlanned         int       `gorm:"not null;default:0" json:"snaps_planned"`
	Fatigue              float64   `gorm:"not null;default:0" json:"fatigue"`
	InjuryWeeksRemaining int       `gorm:"not null;default:0" json:"injury_weeks_remaining"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Player) TableName() string {
	return "players"
}
