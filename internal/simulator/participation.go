package simulator

// Fatigue model constants. Fatigue is a 0-100 scalar; above the threshold a
// player's effective snap count shrinks, floored at MinSnapShare of plan.
const (
	FatiguePerSnap   = 0.32
	FatigueRecovery  = 18.0
	MaxFatigue       = 100.0
	FatigueThreshold = 60.0
	MinSnapShare     = 0.35
)

// PlayerParticipation tracks expected snaps and health for a player across a
// season or playoff run. It is mutated in place by the injury engine.
type PlayerParticipation struct {
	PlayerID             uint     `json:"player_id"`
	Name                 string   `json:"name"`
	Position             Position `json:"position"`
	Snaps                int      `json:"snaps"`
	Fatigue              float64  `json:"fatigue"`
	InjuryWeeksRemaining int      `json:"injury_weeks_remaining"`
}

// ActiveSnaps returns the effective snaps given current fatigue and injury
// state. Injured or unplanned players contribute zero.
func (p *PlayerParticipation) ActiveSnaps() int {
	if p.InjuryWeeksRemaining > 0 || p.Snaps <= 0 {
		return 0
	}
	if p.Fatigue <= FatigueThreshold {
		return p.Snaps
	}
	penalty := p.Fatigue - FatigueThreshold
	if penalty > MaxFatigue {
		penalty = MaxFatigue
	}
	multiplier := 1.0 - penalty/(MaxFatigue+1.0)
	if multiplier < MinSnapShare {
		multiplier = MinSnapShare
	}
	return int(float64(p.Snaps) * multiplier)
}
