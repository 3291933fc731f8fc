package simulator

// byeSlot marks the padding entry used when the team count is odd.
const byeSlot = -1

// BuildRoundRobin generates a circle-method round-robin schedule: n-1 weeks,
// each pairing slot i with slot n-1-i, rotating the circle (slot 0 fixed)
// between weeks and alternating home/away by week parity. An odd team count is
// padded with a bye, so affected weeks have one fewer game.
func BuildRoundRobin(teamIDs []uint) ([][]Matchup, error) {
	if len(teamIDs) == 0 {
		return nil, ErrNoTeams
	}
	if len(teamIDs) == 1 {
		return [][]Matchup{{}}, nil
	}

	slots := make([]int64, 0, len(teamIDs)+1)
	for _, id := range teamIDs {
		slots = append(slots, int64(id))
	}
	if len(slots)%2 == 1 {
		slots = append(slots, byeSlot)
	}

	weeks := len(slots) - 1
	schedule := make([][]Matchup, 0, weeks)
	for week := 0; week < weeks; week++ {
		pairings := make([]Matchup, 0, len(slots)/2)
		for i := 0; i < len(slots)/2; i++ {
			home := slots[i]
			away := slots[len(slots)-1-i]
			if home == byeSlot || away == byeSlot {
				continue
			}
			if week%2 == 0 {
				pairings = append(pairings, Matchup{HomeID: uint(home), AwayID: uint(away)})
			} else {
				pairings = append(pairings, Matchup{HomeID: uint(away), AwayID: uint(home)})
			}
		}
		schedule = append(schedule, pairings)

		// Rotate: keep slot 0 fixed, move the last slot to position 1.
		rotated := make([]int64, 0, len(slots))
		rotated = append(rotated, slots[0], slots[len(slots)-1])
		rotated = append(rotated, slots[1:len(slots)-1]...)
		slots = rotated
	}
	return schedule, nil
}
