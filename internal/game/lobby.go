// internal/game/lobby.go
package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// Lobby is one named game session. All fields are owned by the Registry and
// only touched under its lock.
type Lobby struct {
	Name    string
	Players []*models.Player // insertion order = join order

	Options     models.GameOptions
	GameRunning bool // set at start_game, cleared at game end

	CurrentRound int
	RoundStarted bool
	round        *roundState

	// roundSeq increments on every round start attempt. Timer callbacks and
	// async audio resolution carry the sequence they were armed with and
	// bail out when it no longer matches.
	roundSeq uint64
}

// roundState exists only while a round is active (and briefly while its
// audio resolves). Discarded wholesale at resolution.
type roundState struct {
	seq          uint64
	candidates   []models.Track
	correctIndex int
	startedAt    time.Time
	duration     time.Duration

	firstCorrectAt time.Time
	podiumCount    int // correct respondents so far; placement beyond 3 earns nothing

	resolveTimer   clockwork.Timer
	graceTimer     clockwork.Timer
	stopAudioTimer clockwork.Timer
	resolved       bool
}

// cancelTimers stops every timer the round owns. Safe to call repeatedly.
func (rs *roundState) cancelTimers() {
	if rs == nil {
		return
	}
	for _, t := range []clockwork.Timer{rs.resolveTimer, rs.graceTimer, rs.stopAudioTimer} {
		if t != nil {
			t.Stop()
		}
	}
	rs.resolveTimer, rs.graceTimer, rs.stopAudioTimer = nil, nil, nil
}

// findPlayer returns the player owning the connection, or nil.
func (l *Lobby) findPlayer(conn uuid.UUID) *models.Player {
	for _, p := range l.Players {
		if p.ConnID == conn {
			return p
		}
	}
	return nil
}

// hasUsername reports whether a player with exactly this name is present.
// Matching is case-sensitive on purpose.
func (l *Lobby) hasUsername(username string) bool {
	for _, p := range l.Players {
		if p.Username == username {
			return true
		}
	}
	return false
}

// removeConn drops the player with the given connection, reassigning the
// host role to the first remaining player if the host left. Returns whether
// a player was removed.
func (l *Lobby) removeConn(conn uuid.UUID) bool {
	for i, p := range l.Players {
		if p.ConnID != conn {
			continue
		}
		wasHost := p.IsHost
		l.Players = append(l.Players[:i], l.Players[i+1:]...)
		if wasHost && len(l.Players) > 0 {
			l.Players[0].IsHost = true
		}
		return true
	}
	return false
}

// host returns the current host, or nil for an empty lobby.
func (l *Lobby) host() *models.Player {
	for _, p := range l.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// allAnswered reports whether every currently-present player has submitted
// a choice this round.
func (l *Lobby) allAnswered() bool {
	for _, p := range l.Players {
		if !p.Answered() {
			return false
		}
	}
	return len(l.Players) > 0
}

// connIDs snapshots the member connections for a lobby-group send.
func (l *Lobby) connIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(l.Players))
	for i, p := range l.Players {
		ids[i] = p.ConnID
	}
	return ids
}

// playerSnapshots returns the redacted player list sorted by score
// descending, ties kept in join order.
func (l *Lobby) playerSnapshots() []models.PlayerSnapshot {
	out := make([]models.PlayerSnapshot, len(l.Players))
	for i, p := range l.Players {
		out[i] = models.PlayerSnapshot{Username: p.Username, Score: p.Score, IsHost: p.IsHost}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// summary is this lobby's public directory entry.
func (l *Lobby) summary() models.LobbySummary {
	return models.LobbySummary{
		Name:         l.Name,
		Players:      l.playerSnapshots(),
		RoundStarted: l.RoundStarted,
		CurrentRound: l.CurrentRound,
		TotalRounds:  l.Options.Rounds,
	}
}

// resetChoices marks every player unanswered. Called once per round start
// and at game start.
func (l *Lobby) resetChoices() {
	for _, p := range l.Players {
		p.Choice = models.ChoiceNone
	}
}
