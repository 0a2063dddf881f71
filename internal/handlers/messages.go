// internal/handlers/messages.go
package handlers

import "github.com/lis531/bargebo-guesser/internal/models"

// Inbound message types.
const (
	MsgCreateLobby    = "create_lobby"
	MsgJoinLobby      = "join_lobby"
	MsgReconnectLobby = "reconnect_lobby"
	MsgLeaveLobby     = "leave_lobby"
	MsgStartGame      = "start_game"
	MsgStartRound     = "start_round"
	MsgSubmitAnswer   = "submit_answer"
)

// ClientMessage is the tagged union for everything a client can send. It is
// decoded and validated at the boundary; core logic never sees raw payloads.
type ClientMessage struct {
	Type string `json:"type"`

	LobbyName string `json:"lobbyName,omitempty"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`

	// start_game configuration.
	Rounds        int      `json:"rounds,omitempty"`
	GameMode      string   `json:"gameMode,omitempty"`
	RoundDuration int      `json:"roundDuration,omitempty"`
	PodiumBonus   bool     `json:"podiumBonus,omitempty"`
	Artists       []string `json:"artists,omitempty"`

	// submit_answer. Pointer: index 0 must be distinguishable from absent.
	Choice *int `json:"choice,omitempty"`
}

// GameOptions converts a start_game message into the registry's options
// type. Validation happens in the registry, not here.
func (m ClientMessage) GameOptions() models.GameOptions {
	return models.GameOptions{
		Rounds:      m.Rounds,
		Mode:        models.GameMode(m.GameMode),
		DurationSec: m.RoundDuration,
		PodiumBonus: m.PodiumBonus,
		Artists:     m.Artists,
	}
}
