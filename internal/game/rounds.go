// internal/game/rounds.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lis531/bargebo-guesser/internal/catalog"
	"github.com/lis531/bargebo-guesser/internal/metrics"
	"github.com/lis531/bargebo-guesser/internal/models"
)

const (
	minRounds      = 1
	maxRounds      = 30
	minDurationSec = 5
	maxDurationSec = 60

	// earlyResolveGrace is how long a fully-answered round keeps running so
	// players can see the outcome before it resolves.
	earlyResolveGrace = 4 * time.Second

	// stopAudioDelay is how much playback UltraInstinct mode allows.
	stopAudioDelay = time.Second
)

// StartGame validates the host's configuration and starts the first round.
// Validation failures are returned to the caller only, never broadcast.
func (r *Registry) StartGame(conn uuid.UUID, opts models.GameOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return ErrLobbyNotFound
	}
	l, ok := r.lobbies[name]
	if !ok {
		return ErrLobbyNotFound
	}

	p := l.findPlayer(conn)
	if p == nil || !p.IsHost {
		return ErrNotHost
	}
	if opts.Rounds < minRounds || opts.Rounds > maxRounds {
		return ErrInvalidRounds
	}
	if !opts.Mode.Valid() {
		return ErrInvalidMode
	}
	if opts.DurationSec < minDurationSec || opts.DurationSec > maxDurationSec {
		return ErrInvalidDuration
	}
	pool := r.catalog.Filtered(opts.Artists)
	if catalog.DistinctTitles(pool) < catalog.CandidateCount {
		return ErrInsufficientTracks
	}

	l.Options = opts
	l.GameRunning = true
	l.CurrentRound = 0
	for _, pl := range l.Players {
		pl.Score = 0
	}
	l.resetChoices()

	r.logger.Infof("lobby %q starting game: %d rounds, mode=%s, duration=%ds", name, opts.Rounds, opts.Mode, opts.DurationSec)
	conns := l.connIDs()
	r.bcast.Multicast(conns, Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	r.bcast.Multicast(conns, Event{Type: EventGameStart, RoundDuration: opts.DurationSec, Rounds: opts.Rounds})

	r.startRoundLocked(l)
	return nil
}

// StartNextRound lets the host manually advance while the game is idle,
// which is also the retry path after a failed round start. Silently ignored
// in any other state.
func (r *Registry) StartNextRound(conn uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return
	}
	l, ok := r.lobbies[name]
	if !ok {
		return
	}
	p := l.findPlayer(conn)
	if p == nil || !p.IsHost || !l.GameRunning || l.RoundStarted {
		return
	}
	r.startRoundLocked(l)
}

// startRoundLocked begins a round start attempt: it supersedes any pending
// round (timers cancelled, sequence bumped), picks the candidates, and hands
// off to audio resolution off the lock. The round only becomes visible to
// players once the audio is in hand.
func (r *Registry) startRoundLocked(l *Lobby) {
	l.round.cancelTimers()
	l.round = nil
	l.RoundStarted = false
	l.roundSeq++
	seq := l.roundSeq

	pool := r.catalog.Filtered(l.Options.Artists)
	candidates, err := catalog.PickCandidates(r.rng, pool)
	if err != nil {
		// The catalog shrank since validation; surface it like any other
		// failed round start so the host can retry.
		r.logger.Warnf("lobby %q round start failed: %v", l.Name, err)
		metrics.RoundStartFailures.Inc()
		r.bcast.Multicast(l.connIDs(), Event{Type: EventRoundStartFailed})
		return
	}
	correctIndex := r.rng.Intn(catalog.CandidateCount)

	go r.resolveAndStart(l.Name, seq, candidates, correctIndex)
}

// resolveAndStart fetches the correct track's audio outside the lock, then
// re-validates that the lobby still exists and that no newer round attempt
// superseded this one before committing the round start.
func (r *Registry) resolveAndStart(name string, seq uint64, candidates []models.Track, correctIndex int) {
	data, err := r.resolver.Resolve(context.Background(), candidates[correctIndex])

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[name]
	if !ok || l.roundSeq != seq || !l.GameRunning {
		return
	}

	if err != nil {
		r.logger.Warnf("lobby %q round start failed: audio for %q/%q: %v", name, candidates[correctIndex].Artist, candidates[correctIndex].Title, err)
		metrics.RoundStartFailures.Inc()
		r.bcast.Multicast(l.connIDs(), Event{Type: EventRoundStartFailed})
		return
	}

	now := r.clock.Now()
	l.CurrentRound++
	l.RoundStarted = true
	l.resetChoices()
	rs := &roundState{
		seq:          seq,
		candidates:   candidates,
		correctIndex: correctIndex,
		startedAt:    now,
		duration:     time.Duration(l.Options.DurationSec) * time.Second,
	}
	l.round = rs
	rs.resolveTimer = r.clock.AfterFunc(rs.duration, func() { r.resolveRound(name, seq) })
	if l.Options.Mode == models.ModeUltraInstinct {
		rs.stopAudioTimer = r.clock.AfterFunc(stopAudioDelay, func() { r.stopAudio(name, seq) })
	}
	metrics.RoundsStarted.Inc()

	idx := correctIndex
	r.bcast.Multicast(l.connIDs(), Event{
		Type:           EventRoundStart,
		Songs:          candidates,
		CorrectIndex:   &idx,
		SongData:       data,
		CurrentRound:   l.CurrentRound,
		StartTimestamp: now.UnixMilli(),
		MinScore:       MinScore,
	})
	r.logger.Infof("lobby %q round %d/%d started", name, l.CurrentRound, l.Options.Rounds)
}

// SubmitAnswer records a player's choice and applies scoring. Submissions
// from non-members, outside an active round, or with an out-of-range choice
// are silently ignored.
func (r *Registry) SubmitAnswer(conn uuid.UUID, choice int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return
	}
	l, ok := r.lobbies[name]
	if !ok || !l.RoundStarted || l.round == nil {
		return
	}
	if choice < 0 || choice >= catalog.CandidateCount {
		return
	}
	p := l.findPlayer(conn)
	if p == nil {
		return
	}

	rs := l.round
	firstSubmission := !p.Answered()
	p.Choice = choice

	// Scoring applies only to the submission that moves the player away
	// from "unanswered"; overwrites update the choice but never score.
	correct := choice == rs.correctIndex
	if firstSubmission && correct {
		now := r.clock.Now()
		elapsed := now.Sub(rs.startedAt).Seconds()
		var gap float64
		if rs.firstCorrectAt.IsZero() {
			rs.firstCorrectAt = now
		} else {
			gap = now.Sub(rs.firstCorrectAt).Seconds()
		}
		rs.podiumCount++
		placement := 0
		if rs.podiumCount <= 3 {
			placement = rs.podiumCount
		}
		delta := r.policy.Score(true, elapsed, rs.duration.Seconds(), l.Options.Mode, gap, placement, l.Options.PodiumBonus)
		p.Score += delta
		r.logger.Debugf("lobby %q: %q answered correctly after %.2fs for %d points", name, p.Username, elapsed, delta)
	} else if firstSubmission {
		p.Score += r.policy.Score(false, 0, rs.duration.Seconds(), l.Options.Mode, 0, 0, false)
	}
	if firstSubmission {
		metrics.AnswersSubmitted.WithLabelValues(boolLabel(correct)).Inc()
	}

	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	r.maybeResolveEarlyLocked(l)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// maybeResolveEarlyLocked schedules an early resolution when every present
// player has answered and enough round time remains for the grace period to
// beat the main timer. With less time left the main timer fires naturally,
// which avoids a double-resolution race.
func (r *Registry) maybeResolveEarlyLocked(l *Lobby) {
	rs := l.round
	if rs == nil || rs.resolved || !l.RoundStarted || rs.graceTimer != nil {
		return
	}
	if !l.allAnswered() {
		return
	}
	remaining := rs.startedAt.Add(rs.duration).Sub(r.clock.Now())
	if remaining <= earlyResolveGrace {
		return
	}
	seq := rs.seq
	rs.graceTimer = r.clock.AfterFunc(earlyResolveGrace, func() { r.resolveRound(l.Name, seq) })
	r.logger.Debugf("lobby %q: all players answered, resolving early", l.Name)
}

// resolveRound ends the round identified by seq. It fires from either the
// full-duration timer or the early-resolution grace timer; whichever arrives
// second finds the sequence consumed and becomes a no-op.
func (r *Registry) resolveRound(name string, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[name]
	if !ok {
		return
	}
	rs := l.round
	if rs == nil || rs.seq != seq || rs.resolved {
		return
	}
	rs.resolved = true
	rs.cancelTimers()
	l.RoundStarted = false
	l.round = nil

	if l.CurrentRound < l.Options.Rounds {
		r.bcast.Multicast(l.connIDs(), Event{Type: EventRoundEnd})
		r.startRoundLocked(l)
		return
	}
	r.endGameLocked(l)
}

// endGameLocked finishes the game: final standings go out, every non-host
// player is dropped back to the lobby browser, and the lobby survives in a
// fresh idle state so the host can start another game.
func (r *Registry) endGameLocked(l *Lobby) {
	r.bcast.Multicast(l.connIDs(), Event{Type: EventGameEnd, FinalPlayers: l.playerSnapshots()})

	host := l.host()
	for _, p := range l.Players {
		if p != host {
			delete(r.byConn, p.ConnID)
		}
	}
	l.Players = l.Players[:0]
	if host != nil {
		host.Score = 0
		host.Choice = models.ChoiceNone
		l.Players = append(l.Players, host)
	}
	l.GameRunning = false
	l.CurrentRound = 0
	l.RoundStarted = false

	r.logger.Infof("lobby %q game ended", l.Name)
	r.bcast.Multicast(l.connIDs(), Event{Type: EventPlayersChanged, Players: l.playerSnapshots()})
	r.bcast.Broadcast(Event{Type: EventLobbyList, Lobbies: r.directoryLocked()})
}

// stopAudio tells UltraInstinct lobbies to cut playback shortly after the
// round starts. Stale fires are discarded by the sequence guard.
func (r *Registry) stopAudio(name string, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[name]
	if !ok {
		return
	}
	if l.round == nil || l.round.seq != seq || !l.RoundStarted {
		return
	}
	r.bcast.Multicast(l.connIDs(), Event{Type: EventStopAudio})
}
