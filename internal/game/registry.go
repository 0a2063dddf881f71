// internal/game/registry.go
package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/audio"
	"github.com/lis531/bargebo-guesser/internal/catalog"
	"github.com/lis531/bargebo-guesser/internal/metrics"
	"github.com/lis531/bargebo-guesser/internal/models"
)

// Config wires the registry's collaborators.
type Config struct {
	Catalog     *catalog.Catalog
	Resolver    audio.Resolver
	Broadcaster Broadcaster

	// Clock drives all round timers. Defaults to the real clock; tests
	// inject a fake one.
	Clock clockwork.Clock

	// Scoring defaults to DefaultScoringPolicy.
	Scoring ScoringPolicy

	Logger *log.Logger
}

// Registry owns every lobby and is the single writer of their state: one
// mutex covers the lobby map, the connection index, and all per-lobby
// mutation, so handlers and timer callbacks never race. Anything slow
// (audio resolution) happens outside the lock and re-validates on re-entry.
type Registry struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	byConn  map[uuid.UUID]string // connection -> lobby name

	catalog  *catalog.Catalog
	resolver audio.Resolver
	bcast    Broadcaster
	clock    clockwork.Clock
	rng      *rand.Rand
	policy   ScoringPolicy
	logger   *log.Logger
}

func NewRegistry(c Config) *Registry {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = log.StandardLogger()
	}
	return &Registry{
		lobbies:  make(map[string]*Lobby),
		byConn:   make(map[uuid.UUID]string),
		catalog:  c.Catalog,
		resolver: c.Resolver,
		bcast:    c.Broadcaster,
		clock:    c.Clock,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		policy:   c.Scoring,
		logger:   c.Logger,
	}
}

// Directory returns the public lobby list, name-sorted. The view is
// redacted: no connection identifiers.
func (r *Registry) Directory() []models.LobbySummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.directoryLocked()
}

func (r *Registry) directoryLocked() []models.LobbySummary {
	out := make([]models.LobbySummary, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		out = append(out, l.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Now returns the registry's clock reading, for clock-sync messages.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// CreateLobby registers a new lobby with the creator as host.
func (r *Registry) CreateLobby(name, username string, conn uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lobbies[name]; exists {
		return ErrLobbyExists
	}

	l := &Lobby{
		Name: name,
		Players: []*models.Player{{
			ConnID:   conn,
			Username: username,
			Choice:   models.ChoiceNone,
			IsHost:   true,
		}},
	}
	r.lobbies[name] = l
	r.byConn[conn] = name
	metrics.ActiveLobbies.Inc()

	r.logger.Infof("lobby %q created by %q", name, username)
	r.bcast.Broadcast(Event{Type: EventLobbyList, Lobbies: r.directoryLocked()})
	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	return nil
}

// JoinLobby appends a player to an existing lobby. On success it returns the
// lobby's current round count and duration so a late joiner can render
// consistent state.
func (r *Registry) JoinLobby(name, username string, conn uuid.UUID) (rounds, durationSec int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[name]
	if !ok {
		return 0, 0, ErrLobbyNotFound
	}
	if l.hasUsername(username) {
		return 0, 0, ErrDuplicateUsername
	}
	if l.findPlayer(conn) != nil {
		return 0, 0, ErrAlreadyMember
	}

	l.Players = append(l.Players, &models.Player{
		ConnID:   conn,
		Username: username,
		Choice:   models.ChoiceNone,
	})
	r.byConn[conn] = name

	r.logger.Infof("player %q joined lobby %q", username, name)
	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	r.bcast.Broadcast(Event{Type: EventLobbyList, Lobbies: r.directoryLocked()})
	return l.Options.Rounds, l.Options.DurationSec, nil
}

// ReconnectLobby re-adds a player to a known lobby, bypassing the duplicate
// checks. This is the deliberately weaker-validated path used by a client
// returning to an in-progress game; it never reports an error to the caller.
func (r *Registry) ReconnectLobby(name, username string, conn uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[name]
	if !ok {
		return
	}
	if l.findPlayer(conn) != nil {
		return
	}

	l.Players = append(l.Players, &models.Player{
		ConnID:   conn,
		Username: username,
		Choice:   models.ChoiceNone,
	})
	r.byConn[conn] = name

	r.logger.Infof("player %q reconnected to lobby %q", username, name)
	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
}

// LeaveConn removes the connection's player from its lobby, if any. Handles
// both explicit leave and transport disconnect. Host departure promotes the
// first remaining player; the last departure deletes the lobby and cancels
// its timers.
func (r *Registry) LeaveConn(conn uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(r.byConn, conn)

	l, ok := r.lobbies[name]
	if !ok || !l.removeConn(conn) {
		return
	}

	if len(l.Players) == 0 {
		l.round.cancelTimers()
		l.round = nil
		delete(r.lobbies, name)
		metrics.ActiveLobbies.Dec()
		r.logger.Infof("lobby %q deleted (last player left)", name)
		r.bcast.Broadcast(Event{Type: EventLobbyList, Lobbies: r.directoryLocked()})
		return
	}

	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	r.bcast.Broadcast(Event{Type: EventLobbyList, Lobbies: r.directoryLocked()})

	// Departures must not stall a round everyone else has answered.
	r.maybeResolveEarlyLocked(l)
}
