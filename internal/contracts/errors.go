package contracts

import "errors"

// Typed rejections. Callers match these with errors.Is; handlers map them
// to distinct HTTP statuses so UI layers can tell "already handled" from
// "system failure".
var (
	// ErrIncompleteScoreSet rejects aggregation when a category is missing.
	ErrIncompleteScoreSet = errors.New("incomplete score set")

	// ErrInvalidWeightConfig rejects a weight vector that does not sum to
	// 1.0. Fatal at startup, never silently defaulted.
	ErrInvalidWeightConfig = errors.New("invalid weight configuration")

	// ErrAlreadyVoted rejects a second vote on a signal.
	ErrAlreadyVoted = errors.New("signal already voted")

	// ErrSignalRetired rejects any mutation of a terminal signal.
	ErrSignalRetired = errors.New("signal retired")

	// ErrStalePriceData skips lifecycle evaluation when the latest tick is
	// too old to act on.
	ErrStalePriceData = errors.New("stale price data")

	// ErrSignalNotFound reports an unknown signal id.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrEntryNotFound reports an unknown watchlist entry id.
	ErrEntryNotFound = errors.New("watchlist entry not found")
)
