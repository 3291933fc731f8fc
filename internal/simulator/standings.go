package simulator

// TeamStanding accumulates a team's record, updated exactly once per game
// played.
type TeamStanding struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Ties          int `json:"ties"`
	PointsFor     int `json:"points_for"`
	PointsAgainst int `json:"points_against"`
}

// RecordResult applies one final score from this team's perspective.
func (s *TeamStanding) RecordResult(scored, allowed int) {
	s.PointsFor += scored
	s.PointsAgainst += allowed
	switch {
	case scored > allowed:
		s.Wins++
	case scored < allowed:
		s.Losses++
	default:
		s.Ties++
	}
}

// GamesPlayed returns the total number of recorded games.
func (s TeamStanding) GamesPlayed() int {
	return s.Wins + s.Losses + s.Ties
}

// WinPercentage counts ties as half a win.
func (s TeamStanding) WinPercentage() float64 {
	total := s.GamesPlayed()
	if total == 0 {
		return 0
	}
	return (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(total)
}

// PointDifferential returns points for minus points against.
func (s TeamStanding) PointDifferential() int {
	return s.PointsFor - s.PointsAgainst
}
