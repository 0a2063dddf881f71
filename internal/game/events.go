// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// EventType discriminates outbound messages.
type EventType string

const (
	EventLobbyList           EventType = "lobby_list"
	EventPlayersChanged      EventType = "players_changed"
	EventCreateLobbyResponse EventType = "create_lobby_response"
	EventJoinLobbyResponse   EventType = "join_lobby_response"
	EventStartGameResponse   EventType = "start_game_response"
	EventGameStart           EventType = "game_start"
	EventRoundStart          EventType = "round_start"
	EventRoundEnd            EventType = "round_end"
	EventRoundStartFailed    EventType = "round_start_failed"
	EventGameEnd             EventType = "game_end"
	EventStopAudio           EventType = "stop_audio"
	EventPingForOffset       EventType = "ping_for_offset"
)

// Event is the single outbound message shape. Only the fields relevant to
// the Type are set; everything else is omitted on the wire.
type Event struct {
	Type EventType `json:"type"`

	// Responses to a single client. An absent error means success.
	Error     string   `json:"error,omitempty"`
	LobbyName string   `json:"lobbyName,omitempty"`
	Artists   []string `json:"artists,omitempty"`
	Token     string   `json:"token,omitempty"`

	// Lobby-group payloads.
	Players       []models.PlayerSnapshot `json:"players,omitempty"`
	FinalPlayers  []models.PlayerSnapshot `json:"finalPlayers,omitempty"`
	Rounds        int                     `json:"rounds,omitempty"`
	RoundDuration int                     `json:"roundDuration,omitempty"`
	CurrentRound  int                     `json:"currentRound,omitempty"`

	// Round start. CorrectIndex is a pointer because 0 is a valid index.
	Songs          []models.Track `json:"songs,omitempty"`
	CorrectIndex   *int           `json:"correctIndex,omitempty"`
	SongData       []byte         `json:"songData,omitempty"`
	StartTimestamp int64          `json:"startTimestamp,omitempty"` // unix ms, server clock
	MinScore       int            `json:"minScore,omitempty"`

	// Directory broadcast and clock sync.
	Lobbies    []models.LobbySummary `json:"lobbies,omitempty"`
	ServerTime int64                 `json:"serverTime,omitempty"` // unix ms
}

// Broadcaster delivers events over the realtime channel. Implementations
// must not block: the registry calls these while holding its lock.
type Broadcaster interface {
	// Unicast sends to one connection.
	Unicast(conn uuid.UUID, ev Event)
	// Multicast sends to an explicit set of connections.
	Multicast(conns []uuid.UUID, ev Event)
	// Broadcast sends to every connected client.
	Broadcast(ev Event)
}
