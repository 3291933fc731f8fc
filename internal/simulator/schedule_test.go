package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoundRobinEvenCount(t *testing.T) {
	teams := []uint{1, 2, 3, 4, 5, 6}
	schedule, err := BuildRoundRobin(teams)
	require.NoError(t, err)

	assert.Len(t, schedule, len(teams)-1)

	seen := make(map[[2]uint]int)
	for _, week := range schedule {
		assert.Len(t, week, len(teams)/2)
		inWeek := make(map[uint]bool)
		for _, matchup := range week {
			assert.False(t, inWeek[matchup.HomeID], "team %d scheduled twice in one week", matchup.HomeID)
			assert.False(t, inWeek[matchup.AwayID], "team %d scheduled twice in one week", matchup.AwayID)
			inWeek[matchup.HomeID] = true
			inWeek[matchup.AwayID] = true
			seen[pairKey(matchup.HomeID, matchup.AwayID)]++
		}
	}

	// Every unordered pair meets exactly once in a single round-robin pass.
	assert.Len(t, seen, len(teams)*(len(teams)-1)/2)
	for pair, count := range seen {
		assert.Equal(t, 1, count, "pair %v met %d times", pair, count)
	}
}

func TestBuildRoundRobinOddCountInsertsBye(t *testing.T) {
	schedule, err := BuildRoundRobin([]uint{10, 20, 30, 40, 50})
	require.NoError(t, err)

	// Padded to 6 slots: 5 weeks, each with one team on bye.
	assert.Len(t, schedule, 5)
	for _, week := range schedule {
		assert.Len(t, week, 2)
	}

	games := make(map[uint]int)
	for _, week := range schedule {
		for _, matchup := range week {
			games[matchup.HomeID]++
			games[matchup.AwayID]++
		}
	}
	for team, count := range games {
		assert.Equal(t, 4, count, "team %d played %d games", team, count)
	}
}

func TestBuildRoundRobinHomeAwayAlternates(t *testing.T) {
	schedule, err := BuildRoundRobin([]uint{1, 2, 3, 4})
	require.NoError(t, err)

	// Slot 0 stays fixed; parity flips its venue each week.
	assert.Equal(t, uint(1), schedule[0][0].HomeID)
	assert.Equal(t, uint(1), schedule[1][0].AwayID)
}

func TestBuildRoundRobinEdgeCases(t *testing.T) {
	_, err := BuildRoundRobin(nil)
	assert.ErrorIs(t, err, ErrNoTeams)

	schedule, err := BuildRoundRobin([]uint{7})
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Empty(t, schedule[0])
}
