// internal/game/scoring.go
package game

import (
	"math"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// Score bounds for a correct answer. MinScore is also sent to clients on
// round start so they can render the decay floor.
const (
	MinScore = 80
	MaxScore = 500
)

// Podium bonuses for the first three correct respondents of a round.
const (
	podiumFirstBonus  = 50
	podiumSecondBonus = 25
	podiumThirdBonus  = 10
)

// reflexWindowSec: answers at or under this elapsed time score MaxScore flat.
const reflexWindowSec = 0.5

// ScoringPolicy holds the configurable knobs of the scoring engine.
// WrongPenalty is subtracted for an incorrect answer; the current ruleset
// keeps it at 0, matching the latest game behavior.
type ScoringPolicy struct {
	WrongPenalty int
}

// DefaultScoringPolicy is what production games use.
var DefaultScoringPolicy = ScoringPolicy{WrongPenalty: 0}

// Score converts an answer into a score delta. Pure; all time inputs are in
// seconds.
//
// Correct answers earn an exponentially time-decayed reward in
// [MinScore, MaxScore], with answers inside the reflex window earning
// MaxScore flat. In first-to-answer mode the reward additionally decays with
// gapSec, the time since the round's first correct answer (0 for the first
// respondent); for a fixed first-answer time the result is still strictly
// decreasing in elapsed time and stays within the same bounds.
//
// placement is 1..3 for the first three correct respondents, 0 otherwise;
// the podium bonus applies only when enabled, and is additive.
func (p ScoringPolicy) Score(correct bool, elapsedSec, durationSec float64, mode models.GameMode, gapSec float64, placement int, podiumBonus bool) int {
	if !correct {
		return -p.WrongPenalty
	}

	var base int
	if elapsedSec <= reflexWindowSec {
		base = MaxScore
	} else {
		exponent := -2 * elapsedSec / durationSec
		if mode == models.ModeFirstToAnswer {
			exponent -= gapSec / durationSec
		}
		base = int(math.Round(MinScore + (MaxScore-MinScore)*math.Exp(exponent)))
	}

	if podiumBonus {
		switch placement {
		case 1:
			base += podiumFirstBonus
		case 2:
			base += podiumSecondBonus
		case 3:
			base += podiumThirdBonus
		}
	}
	return base
}
