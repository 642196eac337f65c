// Package scoring turns a budget guess into a round score.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// MaxRoundScore is the best score a single round can earn.
const MaxRoundScore = 100

// ErrInvalidActual is returned when the actual budget is not positive.
var ErrInvalidActual = errors.New("scoring: actual budget must be positive")

// Result is the structured outcome of scoring one guess.
type Result struct {
	Guess       float64
	Actual      int64
	PercentDiff float64
	Score       int
}

// Evaluate scores guess against actual, both in raw currency units.
func Evaluate(guess float64, actual int64) (Result, error) {
	if actual <= 0 {
		return Result{}, ErrInvalidActual
	}
	diff := percentDiff(guess, actual)
	return Result{
		Guess:       guess,
		Actual:      actual,
		PercentDiff: diff,
		Score:       scoreFromDiff(diff),
	}, nil
}

// Score returns the round score in [0, 100]. actual must be positive.
func Score(guess float64, actual int64) int {
	return scoreFromDiff(percentDiff(guess, actual))
}

func percentDiff(guess float64, actual int64) float64 {
	a := float64(actual)
	return math.Abs(guess-a) / a * 100
}

func scoreFromDiff(diff float64) int {
	raw := MaxRoundScore - diff
	if raw < 0 || math.IsNaN(raw) {
		return 0
	}
	return int(math.Round(raw))
}

// ActualMillions is the actual budget expressed in millions.
func (r Result) ActualMillions() float64 {
	return float64(r.Actual) / 1_000_000
}

// Feedback renders the result for display.
func (r Result) Feedback() string {
	return fmt.Sprintf("Your guess is %.2f%% off. The actual budget is %.2f million. Round Score: %d.",
		r.PercentDiff, r.ActualMillions(), r.Score)
}

// Verdict is the headline shown for a round score.
func Verdict(score int) string {
	switch {
	case score >= 90:
		return "Amazing Guess!"
	case score >= 70:
		return "Great Guess!"
	case score >= 50:
		return "Good Guess!"
	case score < 30:
		return "Way Off!"
	default:
		return "Not Bad!"
	}
}

// Rank names the player's standing for an average round score.
func Rank(average float64) string {
	switch {
	case average >= 90:
		return "Movie Budget Expert"
	case average >= 75:
		return "Hollywood Insider"
	case average >= 60:
		return "Film Enthusiast"
	case average >= 40:
		return "Casual Moviegoer"
	default:
		return "Movie Novice"
	}
}
