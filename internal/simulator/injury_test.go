package simulator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveSnaps(t *testing.T) {
	tests := []struct {
		name        string
		participant PlayerParticipation
		want        func(t *testing.T, snaps int)
	}{
		{
			name:        "fresh player plays full plan",
			participant: PlayerParticipation{Snaps: 60, Fatigue: 10},
			want: func(t *testing.T, snaps int) {
				assert.Equal(t, 60, snaps)
			},
		},
		{
			name:        "at threshold no penalty",
			participant: PlayerParticipation{Snaps: 60, Fatigue: 60},
			want: func(t *testing.T, snaps int) {
				assert.Equal(t, 60, snaps)
			},
		},
		{
			name:        "heavy fatigue reduces but floors at 35 percent",
			participant: PlayerParticipation{Snaps: 60, Fatigue: 90},
			want: func(t *testing.T, snaps int) {
				assert.GreaterOrEqual(t, snaps, 21)
				assert.Less(t, snaps, 60)
			},
		},
		{
			name:        "injured player sits",
			participant: PlayerParticipation{Snaps: 60, InjuryWeeksRemaining: 2},
			want: func(t *testing.T, snaps int) {
				assert.Zero(t, snaps)
			},
		},
		{
			name:        "no planned snaps",
			participant: PlayerParticipation{Snaps: 0, Fatigue: 5},
			want: func(t *testing.T, snaps int) {
				assert.Zero(t, snaps)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, tt.participant.ActiveSnaps())
		})
	}
}

func TestRestWeekRecovery(t *testing.T) {
	engine := NewInjuryEngine(rand.New(rand.NewSource(1)))
	rosters := map[uint][]*PlayerParticipation{
		1: {
			{PlayerID: 10, Position: PositionRB, Snaps: 40, Fatigue: 80, InjuryWeeksRemaining: 3},
			{PlayerID: 11, Position: PositionWR, Snaps: 50, Fatigue: 5},
		},
	}

	engine.RestWeek(rosters)

	assert.InDelta(t, 62.0, rosters[1][0].Fatigue, 1e-9)
	assert.Equal(t, 2, rosters[1][0].InjuryWeeksRemaining)
	// Fatigue never goes negative, injury weeks floor at zero.
	assert.Zero(t, rosters[1][1].Fatigue)
	assert.Zero(t, rosters[1][1].InjuryWeeksRemaining)
}

func TestSimulateGameInjuryRoll(t *testing.T) {
	// Force the hazard to the cap so an injury is near-certain over 60 snaps.
	engine := NewInjuryEngine(
		rand.New(rand.NewSource(7)),
		WithPositionRates(map[Position]float64{PositionRB: 1.0}),
	)
	participant := &PlayerParticipation{PlayerID: 42, Position: PositionRB, Snaps: 60}

	events := engine.SimulateGame(3, []*PlayerParticipation{participant})

	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, uint(42), event.PlayerID)
	assert.Equal(t, uint(3), event.TeamID)
	assert.GreaterOrEqual(t, event.WeeksOut, 1)
	assert.LessOrEqual(t, event.WeeksOut, 17)
	assert.GreaterOrEqual(t, event.OccurredSnap, 1)
	assert.LessOrEqual(t, event.OccurredSnap, 60)
	assert.NotEmpty(t, event.InjuryType)
	assert.Equal(t, event.WeeksOut, participant.InjuryWeeksRemaining)

	// Severity maps to its weeks-out bucket.
	switch event.Severity {
	case SeverityMinor:
		assert.Equal(t, 1, event.WeeksOut)
	case SeverityModerate:
		assert.GreaterOrEqual(t, event.WeeksOut, 2)
		assert.LessOrEqual(t, event.WeeksOut, 4)
	case SeverityMajor:
		assert.GreaterOrEqual(t, event.WeeksOut, 5)
		assert.LessOrEqual(t, event.WeeksOut, 8)
	case SeveritySeason:
		assert.GreaterOrEqual(t, event.WeeksOut, 9)
	}
}

func TestSimulateGameAccumulatesFatigue(t *testing.T) {
	engine := NewInjuryEngine(rand.New(rand.NewSource(11)))
	participant := &PlayerParticipation{PlayerID: 1, Position: PositionK, Snaps: 50}

	engine.SimulateGame(1, []*PlayerParticipation{participant})

	// 50 snaps * 0.32 fatigue per snap.
	assert.InDelta(t, 16.0, participant.Fatigue, 1e-9)

	// Fatigue caps at 100 regardless of volume.
	participant.Fatigue = 99
	participant.InjuryWeeksRemaining = 0
	engine.SimulateGame(1, []*PlayerParticipation{participant})
	assert.LessOrEqual(t, participant.Fatigue, MaxFatigue)
}

func TestSimulateGameSkipsInactive(t *testing.T) {
	engine := NewInjuryEngine(
		rand.New(rand.NewSource(5)),
		WithPositionRates(map[Position]float64{PositionQB: 1.0}),
	)
	injured := &PlayerParticipation{PlayerID: 2, Position: PositionQB, Snaps: 60, InjuryWeeksRemaining: 4}

	events := engine.SimulateGame(1, []*PlayerParticipation{injured})

	assert.Empty(t, events)
	assert.Zero(t, injured.Fatigue)
}

func TestTeamAvailabilityPenalty(t *testing.T) {
	engine := NewInjuryEngine(rand.New(rand.NewSource(3)))
	roster := []*PlayerParticipation{
		{PlayerID: 1, Position: PositionQB, Snaps: 60, InjuryWeeksRemaining: 2}, // 4.0
		{PlayerID: 2, Position: PositionRB, Snaps: 40, Fatigue: 80},             // (80-60)/10 = 2.0
		{PlayerID: 3, Position: PositionWR, Snaps: 50, Fatigue: 30},             // healthy, no penalty
	}

	penalty := engine.TeamAvailabilityPenalty(roster)
	assert.InDelta(t, 6.0, penalty, 1e-9)

	assert.Zero(t, engine.TeamAvailabilityPenalty(nil))
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	for severity, name := range severityNames {
		data, err := severity.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, string(data))

		var decoded Severity
		require.NoError(t, decoded.UnmarshalJSON(data))
		assert.Equal(t, severity, decoded)
	}
}
