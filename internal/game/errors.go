// internal/game/errors.go
package game

import "errors"

// Lobby registry failures, returned to the requesting client only.
var (
	ErrLobbyExists       = errors.New("lobby already exists")
	ErrLobbyNotFound     = errors.New("lobby not found")
	ErrDuplicateUsername = errors.New("username already taken in lobby")
	ErrAlreadyMember     = errors.New("connection already in lobby")
)

// Game start validation failures, in the order they are checked.
var (
	ErrNotHost            = errors.New("requester is not the host")
	ErrInvalidRounds      = errors.New("round count out of range")
	ErrInvalidMode        = errors.New("unknown game mode")
	ErrInvalidDuration    = errors.New("round duration out of range")
	ErrInsufficientTracks = errors.New("not enough tracks for the selected artists")
)
