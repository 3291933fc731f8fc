package simulator

import "errors"

// Configuration errors. These indicate a caller contract violation and are
// never retried.
var (
	ErrNoTeams         = errors.New("at least one team is required")
	ErrTooFewSeeds     = errors.New("at least two seeds required for playoff simulation")
	ErrBracketSize     = errors.New("playoff bracket size must be a power of two")
	ErrSeedPermutation = errors.New("playoff seeds must be a permutation of 1..N")
	ErrRosterRequired  = errors.New("rosters must be provided when using an injury engine")
)

// State errors. These indicate an operation was requested before the run
// reached the state that makes it answerable.
var (
	ErrNoGamesSimulated = errors.New("no games have been simulated")
	ErrUnknownTeam      = errors.New("unknown team id")
)
