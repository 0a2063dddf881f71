// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/catalog"
	"github.com/lis531/bargebo-guesser/internal/game"
	"github.com/lis531/bargebo-guesser/internal/metrics"
	"github.com/lis531/bargebo-guesser/internal/session"
)

// WSHandler upgrades the connection, registers it with the hub, greets it
// with a clock-sync timestamp and the current lobby directory, and then
// pumps messages until the client goes away. All game state changes flow
// through the registry; this layer only validates and translates.
func WSHandler(logger *log.Logger, hub *Hub, reg *game.Registry, tokens *session.Tokens, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"bargebo"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "bargebo" {
			c.Close(BadSubprotocolError, "client must speak the bargebo subprotocol")
			return
		}

		connID := uuid.New()
		out := hub.Register(connID)
		metrics.ConnectedClients.Inc()
		logger.Infof("client %s connected from %s", connID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go writePump(ctx, c, out, logger)

		// Clock sync and the directory snapshot go out first so a fresh
		// client can align countdowns and render the browser immediately.
		hub.Unicast(connID, game.Event{Type: game.EventPingForOffset, ServerTime: reg.Now().UnixMilli()})
		hub.Unicast(connID, game.Event{Type: game.EventLobbyList, Lobbies: reg.Directory()})

		readPump(ctx, c, connID, hub, reg, tokens, cat, logger)

		// Cleanup mirrors a voluntary leave: membership is dropped, lobby
		// broadcasts fire, and timers owned by an emptied lobby die with it.
		reg.LeaveConn(connID)
		hub.Unregister(connID)
		metrics.ConnectedClients.Dec()
		logger.Infof("client %s disconnected", connID)
	}
}

func writePump(ctx context.Context, c *websocket.Conn, out <-chan game.Event, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-out:
			if !ok {
				c.Close(websocket.StatusNormalClosure, "connection closed")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Errorf("marshal %s event: %v", ev.Type, err)
				continue
			}
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

func readPump(ctx context.Context, c *websocket.Conn, connID uuid.UUID, hub *Hub, reg *game.Registry, tokens *session.Tokens, cat *catalog.Catalog, logger *log.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.Warnf("client %s read error: %v", connID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("client %s sent invalid json: %v", connID, err)
			continue
		}
		handleMessage(connID, msg, hub, reg, tokens, cat, logger)
	}
}

func handleMessage(connID uuid.UUID, msg ClientMessage, hub *Hub, reg *game.Registry, tokens *session.Tokens, cat *catalog.Catalog, logger *log.Logger) {
	switch msg.Type {
	case MsgCreateLobby:
		if msg.LobbyName == "" || msg.Username == "" {
			hub.Unicast(connID, game.Event{Type: game.EventCreateLobbyResponse, LobbyName: msg.LobbyName, Error: "Lobby name and username are required!"})
			return
		}
		err := reg.CreateLobby(msg.LobbyName, msg.Username, connID)
		ev := game.Event{Type: game.EventCreateLobbyResponse, LobbyName: msg.LobbyName, Error: errorText(err)}
		if err == nil {
			ev.Artists = cat.Artists()
			ev.Token = mintToken(tokens, msg.LobbyName, msg.Username, logger)
		}
		hub.Unicast(connID, ev)

	case MsgJoinLobby:
		if msg.LobbyName == "" || msg.Username == "" {
			hub.Unicast(connID, game.Event{Type: game.EventJoinLobbyResponse, Error: "Lobby name and username are required!"})
			return
		}
		rounds, duration, err := reg.JoinLobby(msg.LobbyName, msg.Username, connID)
		ev := game.Event{Type: game.EventJoinLobbyResponse, Error: errorText(err)}
		if err == nil {
			ev.Rounds = rounds
			ev.RoundDuration = duration
			ev.Token = mintToken(tokens, msg.LobbyName, msg.Username, logger)
		}
		hub.Unicast(connID, ev)

	case MsgReconnectLobby:
		// A valid token overrides the claimed identity; without one this is
		// the legacy trust-the-client path. Either way no error goes back.
		name, username := msg.LobbyName, msg.Username
		if msg.Token != "" {
			m, err := tokens.Verify(msg.Token)
			if err != nil {
				logger.Warnf("client %s presented a bad rejoin token: %v", connID, err)
				return
			}
			name, username = m.Lobby, m.Username
		}
		if name == "" || username == "" {
			return
		}
		reg.ReconnectLobby(name, username, connID)

	case MsgLeaveLobby:
		reg.LeaveConn(connID)

	case MsgStartGame:
		err := reg.StartGame(connID, msg.GameOptions())
		hub.Unicast(connID, game.Event{Type: game.EventStartGameResponse, Error: errorText(err)})

	case MsgStartRound:
		reg.StartNextRound(connID)

	case MsgSubmitAnswer:
		if msg.Choice == nil {
			return
		}
		reg.SubmitAnswer(connID, *msg.Choice)

	default:
		logger.Warnf("client %s sent unknown message type %q", connID, msg.Type)
	}
}

func mintToken(tokens *session.Tokens, lobby, username string, logger *log.Logger) string {
	tok, err := tokens.Mint(session.Membership{Lobby: lobby, Username: username})
	if err != nil {
		logger.Errorf("minting rejoin token: %v", err)
		return ""
	}
	return tok
}

// errorText maps registry errors to the player-facing strings. Success is
// the empty string.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrLobbyExists):
		return "Lobby already exists!"
	case errors.Is(err, game.ErrLobbyNotFound):
		return "Lobby does not exist!"
	case errors.Is(err, game.ErrDuplicateUsername):
		return "Player with this name already is in the lobby!"
	case errors.Is(err, game.ErrAlreadyMember):
		return "This client is already connected to the lobby!"
	case errors.Is(err, game.ErrNotHost):
		return "Only the host can start the game!"
	case errors.Is(err, game.ErrInvalidRounds):
		return "Invalid number of rounds."
	case errors.Is(err, game.ErrInvalidMode):
		return "Invalid mode."
	case errors.Is(err, game.ErrInvalidDuration):
		return "Invalid round duration."
	case errors.Is(err, game.ErrInsufficientTracks):
		return "Not enough songs for the selected artists."
	default:
		return "Unknown error."
	}
}
