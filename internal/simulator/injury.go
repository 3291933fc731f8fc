package simulator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Severity is the closed set of injury outcome classes.
type Severity int

const (
	SeverityMinor Severity = iota
	SeverityModerate
	SeverityMajor
	SeveritySeason
)

var severityNames = map[Severity]string{
	SeverityMinor:    "minor",
	SeverityModerate: "moderate",
	SeverityMajor:    "major",
	SeveritySeason:   "season",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for severity, n := range severityNames {
		if n == name {
			*s = severity
			return nil
		}
	}
	return fmt.Errorf("unknown injury severity %q", name)
}

// severityBucket couples a severity class with its probability weight and
// weeks-out range. Order matters: selection walks the cumulative probability.
type severityBucket struct {
	severity Severity
	prob     float64
	minWeeks int
	maxWeeks int
}

var defaultSeverityBuckets = []severityBucket{
	{SeverityMinor, 0.68, 1, 1},
	{SeverityModerate, 0.20, 2, 4},
	{SeverityMajor, 0.10, 5, 8},
	{SeveritySeason, 0.02, 9, 17},
}

// defaultPositionRates are per-snap injury hazards by position group.
var defaultPositionRates = map[Position]float64{
	PositionQB:   0.00045,
	PositionRB:   0.00095,
	PositionWR:   0.0008,
	PositionTE:   0.00075,
	PositionOL:   0.0006,
	PositionDL:   0.00075,
	PositionEDGE: 0.00085,
	PositionLB:   0.0009,
	PositionCB:   0.0009,
	PositionS:    0.00085,
	PositionK:    0.0002,
	PositionP:    0.0002,
	PositionLS:   0.0001,
}

const defaultPositionRate = 0.00075

// maxPerSnapHazard caps the fatigue-amplified hazard so extreme fatigue never
// makes an injury a near-certainty on a single snap.
const maxPerSnapHazard = 0.25

var injuryTypes = map[Position][]string{
	PositionQB:   {"Shoulder sprain", "Ankle tweak", "Rib bruise"},
	PositionRB:   {"Hamstring pull", "High-ankle sprain", "Knee sprain"},
	PositionWR:   {"Hamstring pull", "Groin strain", "Foot sprain"},
	PositionTE:   {"Knee sprain", "Back spasms", "Shoulder sprain"},
	PositionOL:   {"Knee sprain", "Shoulder strain", "Back tightness"},
	PositionDL:   {"Calf strain", "Shoulder sprain", "Knee contusion"},
	PositionEDGE: {"Ankle sprain", "Groin strain", "Shoulder sprain"},
	PositionLB:   {"Shoulder sprain", "Knee sprain", "Ankle sprain"},
	PositionCB:   {"Hamstring pull", "Calf strain", "Knee sprain"},
	PositionS:    {"Shoulder sprain", "Hamstring pull", "Groin strain"},
	PositionK:    {"Hip flexor strain", "Quad strain"},
	PositionP:    {"Hip flexor strain", "Back tightness"},
	PositionLS:   {"Shoulder sprain"},
}

// InjuryEvent is an injury incurred during a simulated game.
type InjuryEvent struct {
	PlayerID     uint     `json:"player_id"`
	TeamID       uint     `json:"team_id"`
	Severity     Severity `json:"severity"`
	WeeksOut     int      `json:"weeks_out"`
	OccurredSnap int      `json:"occurred_snap"`
	InjuryType   string   `json:"injury_type"`
	Week         int      `json:"week,omitempty"`
	Season       int      `json:"season,omitempty"`
}

// ExpectedReturnWeek returns the week the player is projected back, given the
// week the injury occurred.
func (e InjuryEvent) ExpectedReturnWeek(currentWeek int) int {
	weeks := e.WeeksOut
	if weeks < 0 {
		weeks = 0
	}
	return currentWeek + weeks
}

// InjuryEngine rolls per-game injuries and accumulates fatigue. The generator
// is caller-owned so runs are reproducible; the engine never touches global
// RNG state.
type InjuryEngine struct {
	rng             *rand.Rand
	positionRates   map[Position]float64
	severityBuckets []severityBucket
	fatiguePerSnap  float64
	fatigueRecovery float64
}

// InjuryOption customizes an InjuryEngine.
type InjuryOption func(*InjuryEngine)

// WithPositionRates overrides the per-snap hazard table.
func WithPositionRates(rates map[Position]float64) InjuryOption {
	return func(e *InjuryEngine) {
		e.positionRates = rates
	}
}

// WithFatigueRates overrides fatigue accumulation and recovery constants.
func WithFatigueRates(perSnap, recovery float64) InjuryOption {
	return func(e *InjuryEngine) {
		e.fatiguePerSnap = perSnap
		e.fatigueRecovery = recovery
	}
}

// NewInjuryEngine creates an injury engine backed by the given generator.
func NewInjuryEngine(rng *rand.Rand, opts ...InjuryOption) *InjuryEngine {
	engine := &InjuryEngine{
		rng:             rng,
		positionRates:   defaultPositionRates,
		severityBuckets: defaultSeverityBuckets,
		fatiguePerSnap:  FatiguePerSnap,
		fatigueRecovery: FatigueRecovery,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// SimulateGame rolls one injury check per active participant and accumulates
// fatigue for the snaps played. Injured participants have their
// InjuryWeeksRemaining set in place.
func (e *InjuryEngine) SimulateGame(teamID uint, participants []*PlayerParticipation) []InjuryEvent {
	var events []InjuryEvent
	for _, participant := range participants {
		activeSnaps := participant.ActiveSnaps()
		if activeSnaps <= 0 {
			continue
		}
		hazard := e.rateForPosition(participant.Position)
		fatigueMultiplier := 1.0 + max(participant.Fatigue, 0)/100.0
		hazard *= fatigueMultiplier
		if hazard > maxPerSnapHazard {
			hazard = maxPerSnapHazard
		}
		probability := 1.0 - math.Pow(1.0-hazard, float64(activeSnaps))
		if e.rng.Float64() < probability {
			bucket := e.chooseSeverity()
			weeksOut := randInt(e.rng, bucket.minWeeks, bucket.maxWeeks)
			injuryType := e.pickInjuryType(participant.Position)
			occurredSnap := randInt(e.rng, 1, activeSnaps)
			participant.InjuryWeeksRemaining = weeksOut
			events = append(events, InjuryEvent{
				PlayerID:     participant.PlayerID,
				TeamID:       teamID,
				Severity:     bucket.severity,
				WeeksOut:     weeksOut,
				OccurredSnap: occurredSnap,
				InjuryType:   injuryType,
			})
		}
		participant.Fatigue = min(MaxFatigue, participant.Fatigue+float64(activeSnaps)*e.fatiguePerSnap)
	}
	return events
}

// RestWeek advances the calendar one week: injuries tick down and fatigue
// recovers. Must run to completion before the next week's games start.
func (e *InjuryEngine) RestWeek(rosters map[uint][]*PlayerParticipation) {
	for _, roster := range rosters {
		for _, participant := range roster {
			if participant.InjuryWeeksRemaining > 0 {
				participant.InjuryWeeksRemaining--
			}
			if participant.Fatigue > 0 {
				participant.Fatigue = max(0, participant.Fatigue-e.fatigueRecovery)
			}
		}
	}
}

// TeamAvailabilityPenalty returns a rating penalty driven by unavailable
// starters and healthy-but-tired players.
func (e *InjuryEngine) TeamAvailabilityPenalty(roster []*PlayerParticipation) float64 {
	injuryPenalty := 0.0
	fatiguePenalty := 0.0
	for _, participant := range roster {
		if participant.InjuryWeeksRemaining > 0 {
			injuryPenalty += 4.0
		} else {
			fatiguePenalty += max(0, participant.Fatigue-FatigueThreshold) / 10.0
		}
	}
	return injuryPenalty + fatiguePenalty
}

func (e *InjuryEngine) rateForPosition(position Position) float64 {
	if rate, ok := e.positionRates[position]; ok {
		return rate
	}
	return defaultPositionRate
}

func (e *InjuryEngine) chooseSeverity() severityBucket {
	roll := e.rng.Float64()
	cumulative := 0.0
	for _, bucket := range e.severityBuckets {
		cumulative += bucket.prob
		if roll <= cumulative {
			return bucket
		}
	}
	return e.severityBuckets[len(e.severityBuckets)-1]
}

func (e *InjuryEngine) pickInjuryType(position Position) string {
	candidates, ok := injuryTypes[position]
	if !ok || len(candidates) == 0 {
		return "Soft-tissue strain"
	}
	return candidates[e.rng.Intn(len(candidates))]
}
