package simulator

import "math"

const (
	// DefaultHomeFieldAdvantage is the rating bump applied to the home team
	// before computing win probability.
	DefaultHomeFieldAdvantage = 55.0

	// DefaultKFactor controls how fast ratings drift after a result.
	DefaultKFactor = 32.0
)

// WinProbability returns the Elo-style probability that the home team wins.
// With homeFieldAdvantage of zero, WinProbability(a, b) + WinProbability(b, a) == 1.
func WinProbability(homeRating, awayRating, homeFieldAdvantage float64) float64 {
	exponent := (awayRating - (homeRating + homeFieldAdvantage)) / 400.0
	return 1.0 / (1.0 + math.Pow(10, exponent))
}

// ApplyResult returns the updated rating after a game. actual is 1 for a win,
// 0.5 for a tie and 0 for a loss; expected is the pre-game win probability.
func ApplyResult(currentRating, expected, actual, k float64) float64 {
	return currentRating + k*(actual-expected)
}
