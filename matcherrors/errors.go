package matcherrors

import "errors"

// Intent rejection sentinels. Shared by match, matchmaking and ws so the
// transport can classify a rejection without importing the session package.
var (
	ErrWrongState       = errors.New("intent not valid in current match state")
	ErrNotTurnOwner     = errors.New("sender does not own the turn")
	ErrCardNotInZone    = errors.New("card not in expected zone")
	ErrChoicePending    = errors.New("resolution suspended on a pending choice")
	ErrStackNotEmpty    = errors.New("stack is not empty")
	ErrUnknownChoice    = errors.New("unknown or already resolved choice")
	ErrNotRecipient     = errors.New("sender is not the choice recipient")
	ErrInvalidSelection = errors.New("selection outside candidates or count bounds")
	ErrUnknownCard      = errors.New("unknown card definition")
	ErrNoTrinket        = errors.New("no equipped trinket with uses left")
)

// Routing sentinels.
var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotInMatch        = errors.New("connection is not in a match")
	ErrAlreadyInMatch    = errors.New("connection already in a match")
	ErrMatchNotFound     = errors.New("match not found")
)
