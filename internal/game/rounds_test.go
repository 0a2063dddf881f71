// internal/game/rounds_test.go
package game

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// startTwoPlayerGame wires a lobby with a host and a guest and starts a game
// with the given options, waiting for the first round to go live.
func startTwoPlayerGame(t *testing.T, r *Registry, mb *mockBroadcaster, opts models.GameOptions) (host, guest uuid.UUID) {
	t.Helper()
	host, guest = uuid.New(), uuid.New()
	require.NoError(t, r.CreateLobby("friday", "alice", host))
	_, _, err := r.JoinLobby("friday", "bob", guest)
	require.NoError(t, err)
	require.NoError(t, r.StartGame(host, opts))
	mb.waitFor(t, EventRoundStart, 1)
	return host, guest
}

func TestStartGameBeginsFirstRound(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	startTwoPlayerGame(t, r, mb, defaultOptions())

	start, ok := mb.last(EventGameStart)
	require.True(t, ok)
	assert.Equal(t, 2, start.Rounds)
	assert.Equal(t, 20, start.RoundDuration)

	round, _ := mb.last(EventRoundStart)
	assert.Equal(t, 1, round.CurrentRound)
	assert.Equal(t, MinScore, round.MinScore)
	assert.Equal(t, []byte("clip"), round.SongData)
	require.NotNil(t, round.CorrectIndex)
	require.Len(t, round.Songs, 4)

	titles := make(map[string]struct{})
	for _, s := range round.Songs {
		titles[s.Title] = struct{}{}
	}
	assert.Len(t, titles, 4, "candidate titles must be pairwise distinct")
}

func TestRoundResolvesOnTimer(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	startTwoPlayerGame(t, r, mb, defaultOptions())

	fc.Advance(19 * time.Second)
	assert.Equal(t, 0, mb.count(EventRoundEnd))

	fc.Advance(time.Second)
	mb.waitFor(t, EventRoundEnd, 1)
	mb.waitFor(t, EventRoundStart, 2)

	round, _ := mb.last(EventRoundStart)
	assert.Equal(t, 2, round.CurrentRound)
}

func TestCorrectAnswerScores(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	host, _ := startTwoPlayerGame(t, r, mb, defaultOptions())

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)

	ev, ok := mb.last(EventPlayersChanged)
	require.True(t, ok)
	// Zero elapsed on the fake clock lands inside the reflex window.
	assert.Equal(t, "alice", ev.Players[0].Username)
	assert.Equal(t, MaxScore, ev.Players[0].Score)
}

func TestWrongThenCorrectNeverScores(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	host, _ := startTwoPlayerGame(t, r, mb, defaultOptions())

	round, _ := mb.last(EventRoundStart)
	wrong := (*round.CorrectIndex + 1) % 4
	r.SubmitAnswer(host, wrong)
	r.SubmitAnswer(host, *round.CorrectIndex)

	ev, _ := mb.last(EventPlayersChanged)
	for _, p := range ev.Players {
		assert.Zero(t, p.Score)
	}
}

func TestSubmitAnswerIgnoredOutsideRound(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	host := uuid.New()
	require.NoError(t, r.CreateLobby("friday", "alice", host))
	before := mb.count(EventPlayersChanged)

	// No round running, then an unknown connection.
	r.SubmitAnswer(host, 0)
	r.SubmitAnswer(uuid.New(), 0)

	assert.Equal(t, before, mb.count(EventPlayersChanged))
}

func TestSubmitAnswerRejectsOutOfRangeChoice(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	host, _ := startTwoPlayerGame(t, r, mb, defaultOptions())
	before := mb.count(EventPlayersChanged)

	r.SubmitAnswer(host, -1)
	r.SubmitAnswer(host, 4)

	assert.Equal(t, before, mb.count(EventPlayersChanged))
}

func TestAllAnsweredResolvesEarly(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	host, guest := startTwoPlayerGame(t, r, mb, defaultOptions())

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)
	r.SubmitAnswer(guest, (*round.CorrectIndex+1)%4)

	// The grace period runs, then the round ends well before the full 20s.
	fc.Advance(4 * time.Second)
	mb.waitFor(t, EventRoundEnd, 1)
}

func TestNoEarlyResolutionNearRoundEnd(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.DurationSec = 5
	host, guest := startTwoPlayerGame(t, r, mb, opts)

	fc.Advance(2 * time.Second)
	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)
	r.SubmitAnswer(guest, *round.CorrectIndex)

	// Only 3s remain, inside the grace window: the main timer must be the
	// one to fire, exactly once.
	fc.Advance(2 * time.Second)
	assert.Equal(t, 0, mb.count(EventRoundEnd))
	fc.Advance(time.Second)
	mb.waitFor(t, EventRoundEnd, 1)
}

func TestDepartureTriggersEarlyResolution(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	host, guest := startTwoPlayerGame(t, r, mb, defaultOptions())

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)
	assert.Equal(t, 0, mb.count(EventRoundEnd))

	// The only unanswered player leaves; the round must not stall.
	r.LeaveConn(guest)
	fc.Advance(4 * time.Second)
	mb.waitFor(t, EventRoundEnd, 1)
}

func TestResolutionIsExactlyOnce(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.Rounds = 1
	host, guest := startTwoPlayerGame(t, r, mb, opts)

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)
	r.SubmitAnswer(guest, *round.CorrectIndex)

	// Both the grace timer and the full-duration timer come due; the
	// second fire must find the round already consumed.
	fc.Advance(25 * time.Second)
	mb.waitFor(t, EventGameEnd, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, mb.count(EventGameEnd))
}

func TestStaleTimerFireIsNoOp(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	startTwoPlayerGame(t, r, mb, defaultOptions())

	// A callback armed for a superseded round attempt must change nothing.
	r.resolveRound("friday", 0)
	r.resolveRound("nowhere", 1)

	assert.Equal(t, 0, mb.count(EventRoundEnd))
	dir := r.Directory()
	require.Len(t, dir, 1)
	assert.Equal(t, 1, dir[0].CurrentRound)
}

func TestGameEndKeepsHostOnly(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.Rounds = 1
	host, guest := startTwoPlayerGame(t, r, mb, opts)

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(guest, *round.CorrectIndex)

	fc.Advance(20 * time.Second)
	end := mb.waitFor(t, EventGameEnd, 1)

	require.Len(t, end.FinalPlayers, 2)
	assert.Equal(t, "bob", end.FinalPlayers[0].Username, "standings are score-sorted")
	assert.Equal(t, MaxScore, end.FinalPlayers[0].Score)

	dir := r.Directory()
	require.Len(t, dir, 1)
	require.Len(t, dir[0].Players, 1)
	assert.Equal(t, "alice", dir[0].Players[0].Username)
	assert.Zero(t, dir[0].Players[0].Score)
	assert.Zero(t, dir[0].CurrentRound)

	// The evicted guest's connection no longer maps to the lobby.
	before := mb.count(EventPlayersChanged)
	r.SubmitAnswer(host, 0)
	r.LeaveConn(guest)
	assert.Equal(t, before, mb.count(EventPlayersChanged))
}

func TestSingleRoundGameEndToEnd(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.Rounds = 1
	opts.DurationSec = 10
	host, guest := startTwoPlayerGame(t, r, mb, opts)

	round, _ := mb.last(EventRoundStart)
	fc.Advance(time.Second)
	r.SubmitAnswer(host, (*round.CorrectIndex+1)%4)
	fc.Advance(time.Second)
	r.SubmitAnswer(guest, *round.CorrectIndex)

	// Fully answered with 8s left: the grace timer resolves the round.
	fc.Advance(4 * time.Second)
	end := mb.waitFor(t, EventGameEnd, 1)
	require.Len(t, end.FinalPlayers, 2)
	assert.Equal(t, "bob", end.FinalPlayers[0].Username)
	// 80 + 420*e^(-2*2/10), rounded.
	assert.Equal(t, 362, end.FinalPlayers[0].Score)
	assert.Zero(t, end.FinalPlayers[1].Score)
}

func TestRoundStartFailureAndRetry(t *testing.T) {
	r, mb, _, res := newTestRegistry(t)
	host, guest := uuid.New(), uuid.New()
	require.NoError(t, r.CreateLobby("friday", "alice", host))
	_, _, err := r.JoinLobby("friday", "bob", guest)
	require.NoError(t, err)

	res.fail(errors.New("blob store down"))
	require.NoError(t, r.StartGame(host, defaultOptions()))
	mb.waitFor(t, EventRoundStartFailed, 1)
	assert.Equal(t, 0, mb.count(EventRoundStart))

	// Guests cannot retry; the host can once the resolver recovers.
	res.succeed()
	r.StartNextRound(guest)
	assert.Equal(t, 0, mb.count(EventRoundStart))

	r.StartNextRound(host)
	round := mb.waitFor(t, EventRoundStart, 1)
	assert.Equal(t, 1, round.CurrentRound)
}

func TestUltraInstinctStopsAudio(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.Mode = models.ModeUltraInstinct
	startTwoPlayerGame(t, r, mb, opts)

	assert.Equal(t, 0, mb.count(EventStopAudio))
	fc.Advance(time.Second)
	mb.waitFor(t, EventStopAudio, 1)
}

func TestPodiumBonusAwardsPlacement(t *testing.T) {
	r, mb, _, _ := newTestRegistry(t)
	opts := defaultOptions()
	opts.PodiumBonus = true
	host, guest := startTwoPlayerGame(t, r, mb, opts)

	round, _ := mb.last(EventRoundStart)
	r.SubmitAnswer(host, *round.CorrectIndex)
	r.SubmitAnswer(guest, *round.CorrectIndex)

	ev, _ := mb.last(EventPlayersChanged)
	require.Len(t, ev.Players, 2)
	assert.Equal(t, MaxScore+50, ev.Players[0].Score)
	assert.Equal(t, MaxScore+25, ev.Players[1].Score)
}

func TestLastLeaverCancelsRoundTimers(t *testing.T) {
	r, mb, fc, _ := newTestRegistry(t)
	host, guest := startTwoPlayerGame(t, r, mb, defaultOptions())

	r.LeaveConn(guest)
	r.LeaveConn(host)
	require.Empty(t, r.Directory())

	// With the lobby gone, advancing past the round must produce nothing.
	before := mb.count(EventRoundEnd)
	fc.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, mb.count(EventRoundEnd))
}
