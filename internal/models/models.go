// internal/models/models.go
package models

import "github.com/google/uuid"

// Track is one playable song from the catalog. Immutable once loaded; rounds
// reference catalog tracks, they never copy or mutate them.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Cover    string `json:"cover,omitempty"`
	AudioRef string `json:"-"` // opaque blob-store key, never sent to clients
}

// GameMode selects the scoring/round behavior for a game.
type GameMode string

const (
	ModeNormal        GameMode = "normal"
	ModeFirstToAnswer GameMode = "firstToAnswer"
	ModeUltraInstinct GameMode = "ultraInstinct"
)

// Valid reports whether m is one of the known modes.
func (m GameMode) Valid() bool {
	switch m {
	case ModeNormal, ModeFirstToAnswer, ModeUltraInstinct:
		return true
	}
	return false
}

// ChoiceNone marks a player who has not answered in the current round.
const ChoiceNone = -1

// Player is one lobby member. ConnID identifies the transport connection and
// is unique per active socket; Username is unique only within the lobby.
type Player struct {
	ConnID   uuid.UUID
	Username string
	Choice   int
	Score    int
	IsHost   bool
}

// Answered reports whether the player has submitted a choice this round.
func (p *Player) Answered() bool {
	return p.Choice != ChoiceNone
}

// PlayerSnapshot is the redacted view of a player broadcast to clients.
// Connection identifiers are deliberately omitted.
type PlayerSnapshot struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"isHost"`
}

// LobbySummary is one entry of the public lobby directory.
type LobbySummary struct {
	Name         string           `json:"name"`
	Players      []PlayerSnapshot `json:"players"`
	RoundStarted bool             `json:"roundStarted"`
	CurrentRound int              `json:"currentRound"`
	TotalRounds  int              `json:"totalRounds"`
}

// GameOptions carries the host's game configuration as received from the
// client; the registry validates it before storing it on the lobby.
type GameOptions struct {
	Rounds      int
	Mode        GameMode
	DurationSec int
	PodiumBonus bool
	Artists     []string
}
