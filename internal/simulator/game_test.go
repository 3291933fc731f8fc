package simulator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster(teamOffset uint) []*PlayerParticipation {
	return []*PlayerParticipation{
		{PlayerID: teamOffset + 1, Name: "QB One", Position: PositionQB, Snaps: 65},
		{PlayerID: teamOffset + 2, Name: "RB One", Position: PositionRB, Snaps: 45},
		{PlayerID: teamOffset + 3, Name: "WR One", Position: PositionWR, Snaps: 55},
		{PlayerID: teamOffset + 4, Name: "Edge One", Position: PositionEDGE, Snaps: 50},
		{PlayerID: teamOffset + 5, Name: "K One", Position: PositionK, Snaps: 8},
	}
}

func TestSimulateGameDeterministic(t *testing.T) {
	home := testRoster(100)
	away := testRoster(200)

	first := SimulateGame(1, 2, 1500, 1500, 42, home, away)
	second := SimulateGame(1, 2, 1500, 1500, 42, home, away)

	// Identical seed and inputs must reproduce the log byte for byte.
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)

	// A different seed diverges.
	third := SimulateGame(1, 2, 1500, 1500, 43, home, away)
	assert.NotEqual(t, first.Drives, third.Drives)
}

func TestSimulateGameScoreFloors(t *testing.T) {
	// Even a hopeless underdog never scores below the floor.
	for seed := int64(0); seed < 25; seed++ {
		log := SimulateGame(1, 2, 2000, 800, seed, nil, nil)
		assert.GreaterOrEqual(t, log.HomeScore, 6)
		assert.GreaterOrEqual(t, log.AwayScore, 3)
	}
}

func TestSimulateGameDrives(t *testing.T) {
	log := SimulateGame(1, 2, 1550, 1480, 7, testRoster(100), testRoster(200))

	// 20-26 generated drives plus at most two corrective field goals.
	assert.GreaterOrEqual(t, len(log.Drives), 20)
	assert.LessOrEqual(t, len(log.Drives), 28)

	for _, drive := range log.Drives {
		assert.Contains(t, []Side{SideHome, SideAway}, drive.Side)
		assert.GreaterOrEqual(t, drive.Yards, 0)
		assert.GreaterOrEqual(t, drive.Minutes, 1.0)
	}

	// Drive scoring never exceeds the reconciled final score.
	homePoints, awayPoints := 0, 0
	for _, drive := range log.Drives {
		if drive.Side == SideHome {
			homePoints += drive.Result.Points()
		} else {
			awayPoints += drive.Result.Points()
		}
	}
	assert.GreaterOrEqual(t, homePoints, 0)
	assert.GreaterOrEqual(t, awayPoints, 0)
}

func TestSimulateGameStatLines(t *testing.T) {
	log := SimulateGame(1, 2, 1500, 1500, 99, testRoster(100), nil)

	// Roster-backed side names real players, including specialists.
	require.NotEmpty(t, log.HomeStats)
	assert.Equal(t, "QB One", log.HomeStats[0].Name)
	assert.Equal(t, uint(101), log.HomeStats[0].PlayerID)
	assert.Len(t, log.HomeStats, 5)

	// Empty roster falls back to anonymous lines.
	require.Len(t, log.AwayStats, 3)
	assert.Equal(t, "Away QB", log.AwayStats[0].Name)
	assert.Zero(t, log.AwayStats[0].PlayerID)
}

func TestSimulateGameThinRosterFallsBack(t *testing.T) {
	// A roster with no QB uses the best-available player for the QB line.
	roster := []*PlayerParticipation{
		{PlayerID: 9, Name: "Utility Back", Position: PositionRB, Snaps: 50},
	}
	log := SimulateGame(1, 2, 1500, 1500, 3, roster, nil)

	require.NotEmpty(t, log.HomeStats)
	for _, line := range log.HomeStats {
		assert.Equal(t, "Utility Back", line.Name)
	}
	// No EDGE or K on the roster, so no specialist lines are invented.
	assert.Len(t, log.HomeStats, 3)
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "Nail-biter comes down to the final drive", headline(24, 21))
	assert.Equal(t, "Statement win in all three phases", headline(38, 10))
	assert.Equal(t, "Solid all-around performance", headline(27, 17))
	assert.Equal(t, "Statement win in all three phases", headline(10, 38))
}

func TestDriveOutcomeJSON(t *testing.T) {
	data, err := json.Marshal(Drive{Side: SideHome, Result: DriveTouchdown, Yards: 75, Minutes: 3.2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"team":"home","result":"TD","yards":75,"minutes":3.2}`, string(data))

	var decoded Drive
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, DriveTouchdown, decoded.Result)

	var bad DriveOutcome
	assert.Error(t, json.Unmarshal([]byte(`"Safety"`), &bad))
}
