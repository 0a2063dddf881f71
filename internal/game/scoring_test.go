// internal/game/scoring_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lis531/bargebo-guesser/internal/models"
)

func TestScoreReflexWindow(t *testing.T) {
	p := DefaultScoringPolicy

	assert.Equal(t, MaxScore, p.Score(true, 0, 20, models.ModeNormal, 0, 0, false))
	assert.Equal(t, MaxScore, p.Score(true, 0.5, 20, models.ModeNormal, 0, 0, false))
	assert.Less(t, p.Score(true, 0.51, 20, models.ModeNormal, 0, 0, false), MaxScore)
}

func TestScoreDecaysWithElapsedTime(t *testing.T) {
	p := DefaultScoringPolicy

	prev := MaxScore + 1
	for _, elapsed := range []float64{1, 3, 5, 10, 15, 20} {
		s := p.Score(true, elapsed, 20, models.ModeNormal, 0, 0, false)
		assert.Less(t, s, prev, "score at %.0fs should be below score at the previous mark", elapsed)
		assert.GreaterOrEqual(t, s, MinScore)
		assert.LessOrEqual(t, s, MaxScore)
		prev = s
	}
}

func TestScoreKnownValue(t *testing.T) {
	// 80 + 420*e^-1 at the halfway point of a 20s round.
	assert.Equal(t, 235, DefaultScoringPolicy.Score(true, 10, 20, models.ModeNormal, 0, 0, false))
}

func TestScoreNeverBelowFloor(t *testing.T) {
	p := DefaultScoringPolicy

	assert.GreaterOrEqual(t, p.Score(true, 20, 20, models.ModeNormal, 0, 0, false), MinScore)
	// Late submissions past the nominal duration still floor at MinScore.
	assert.GreaterOrEqual(t, p.Score(true, 40, 20, models.ModeFirstToAnswer, 40, 0, false), MinScore)
}

func TestScoreFirstToAnswerGapPenalty(t *testing.T) {
	p := DefaultScoringPolicy

	first := p.Score(true, 5, 20, models.ModeFirstToAnswer, 0, 0, false)
	second := p.Score(true, 5, 20, models.ModeFirstToAnswer, 2, 0, false)
	third := p.Score(true, 5, 20, models.ModeFirstToAnswer, 6, 0, false)

	// A zero gap matches the normal-mode value; larger gaps earn less.
	assert.Equal(t, p.Score(true, 5, 20, models.ModeNormal, 0, 0, false), first)
	assert.Less(t, second, first)
	assert.Less(t, third, second)
	assert.GreaterOrEqual(t, third, MinScore)
}

func TestScorePodiumBonuses(t *testing.T) {
	p := DefaultScoringPolicy

	base := p.Score(true, 5, 20, models.ModeNormal, 0, 0, false)
	assert.Equal(t, base+50, p.Score(true, 5, 20, models.ModeNormal, 0, 1, true))
	assert.Equal(t, base+25, p.Score(true, 5, 20, models.ModeNormal, 0, 2, true))
	assert.Equal(t, base+10, p.Score(true, 5, 20, models.ModeNormal, 0, 3, true))
	assert.Equal(t, base, p.Score(true, 5, 20, models.ModeNormal, 0, 0, true))

	// Placement is ignored while the bonus is disabled.
	assert.Equal(t, base, p.Score(true, 5, 20, models.ModeNormal, 0, 1, false))
}

func TestScoreWrongAnswer(t *testing.T) {
	assert.Equal(t, 0, DefaultScoringPolicy.Score(false, 5, 20, models.ModeNormal, 0, 0, false))

	strict := ScoringPolicy{WrongPenalty: 40}
	assert.Equal(t, -40, strict.Score(false, 5, 20, models.ModeNormal, 0, 0, false))
}
