// Package game runs one player's game session: loading movies, scoring
// guesses and keeping the running totals for single and daily play.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/scoring"
)

// State is a step of the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateGuessed
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateGuessed:
		return "guessed"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mode selects where rounds come from.
type Mode string

const (
	ModePopular  Mode = "popular"
	ModeDiscover Mode = "discover"
	ModeDaily    Mode = "daily"
)

// DailyRounds and DailyMaxScore describe a full daily challenge.
const (
	DailyRounds   = 5
	DailyMaxScore = DailyRounds * scoring.MaxRoundScore
)

// ErrInvalidTransition is returned when an action is not allowed in the current state.
var ErrInvalidTransition = errors.New("game: action not allowed in current state")

// ErrUnknownMode is returned by ParseMode and SetMode for unsupported modes.
var ErrUnknownMode = errors.New("game: unknown mode")

// ErrEmptyDaily is returned when the daily record has no movies.
var ErrEmptyDaily = errors.New("game: daily challenge has no movies")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePopular, ModeDiscover, ModeDaily:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Source supplies movies to a session.
type Source interface {
	RandomMovie(ctx context.Context, kind domain.ListKind, filters domain.DiscoverFilters) (domain.MovieSnapshot, error)
	DailyMovies(ctx context.Context) (domain.DailyRecord, error)
}

// progress is the mode-specific half of a session: either *singleRun or *dailyRun.
type progress interface {
	current() (domain.MovieSnapshot, bool)
}

type singleRun struct {
	kind       domain.ListKind
	filters    domain.DiscoverFilters
	movie      *domain.MovieSnapshot
	roundCount int
	totalScore int
}

func (r *singleRun) current() (domain.MovieSnapshot, bool) {
	if r.movie == nil {
		return domain.MovieSnapshot{}, false
	}
	return *r.movie, true
}

type dailyRun struct {
	record  domain.DailyRecord
	index   int
	score   int
	pending int
}

func (r *dailyRun) current() (domain.MovieSnapshot, bool) {
	if r.index < 0 || r.index >= len(r.record.Movies) {
		return domain.MovieSnapshot{}, false
	}
	return r.record.Movies[r.index], true
}

func (r *dailyRun) complete() bool {
	return len(r.record.Movies) > 0 && r.index >= len(r.record.Movies)
}

// Session is a single player's game. It is not safe for concurrent use.
type Session struct {
	id      uuid.UUID
	source  Source
	state   State
	mode    Mode
	single  *singleRun
	active  progress
	last    *scoring.Result
	lastErr error
}

// NewSession returns an idle session in popular mode.
func NewSession(source Source) *Session {
	single := &singleRun{kind: domain.ListPopular}
	return &Session{
		id:     uuid.New(),
		source: source,
		state:  StateIdle,
		mode:   ModePopular,
		single: single,
		active: single,
	}
}

// ID identifies the session.
func (s *Session) ID() uuid.UUID { return s.id }

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// Mode reports the active mode.
func (s *Session) Mode() Mode { return s.mode }

// Filters reports the discover filters in use.
func (s *Session) Filters() domain.DiscoverFilters { return s.single.filters }

// LastError is the error from the most recent failed load, if any.
func (s *Session) LastError() error { return s.lastErr }

// LastResult is the scored outcome of the current round.
func (s *Session) LastResult() (scoring.Result, bool) {
	if s.last == nil {
		return scoring.Result{}, false
	}
	return *s.last, true
}

// Current returns the movie being guessed.
func (s *Session) Current() (domain.MovieSnapshot, bool) {
	if s.state != StateReady && s.state != StateGuessed {
		return domain.MovieSnapshot{}, false
	}
	return s.active.current()
}

// Start loads the first round for the active mode.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	return s.load(ctx)
}

// SetMode switches mode and loads a round. Switching between popular and
// discover keeps the running totals; entering daily starts a fresh daily run.
func (s *Session) SetMode(ctx context.Context, mode Mode, filters domain.DiscoverFilters) error {
	if s.state == StateLoading {
		return fmt.Errorf("%w: set mode while loading", ErrInvalidTransition)
	}
	switch mode {
	case ModePopular:
		s.single.kind = domain.ListPopular
		s.single.filters = domain.DiscoverFilters{}
		s.active = s.single
	case ModeDiscover:
		s.single.kind = domain.ListDiscover
		s.single.filters = filters
		s.active = s.single
	case ModeDaily:
		s.active = &dailyRun{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.mode = mode
	return s.load(ctx)
}

// Reset clears the totals of the active mode and loads a new round.
func (s *Session) Reset(ctx context.Context) error {
	if s.state == StateLoading {
		return fmt.Errorf("%w: reset while loading", ErrInvalidTransition)
	}
	switch run := s.active.(type) {
	case *singleRun:
		run.roundCount = 0
		run.totalScore = 0
	case *dailyRun:
		s.active = &dailyRun{}
	}
	return s.load(ctx)
}

// Submit scores a guess entered in millions. Invalid input leaves the session unchanged.
func (s *Session) Submit(input string) (scoring.Result, error) {
	if s.state != StateReady {
		return scoring.Result{}, fmt.Errorf("%w: guess in %s", ErrInvalidTransition, s.state)
	}
	guess, err := ParseGuess(input)
	if err != nil {
		return scoring.Result{}, err
	}
	movie, ok := s.active.current()
	if !ok {
		return scoring.Result{}, fmt.Errorf("%w: no movie loaded", ErrInvalidTransition)
	}
	result, err := scoring.Evaluate(guess, movie.Budget)
	if err != nil {
		return scoring.Result{}, err
	}

	switch run := s.active.(type) {
	case *singleRun:
		run.roundCount++
		run.totalScore += result.Score
	case *dailyRun:
		run.pending = result.Score
	}
	s.last = &result
	s.state = StateGuessed
	return result, nil
}

// Next moves on from a scored round. Single modes fetch a new movie; daily
// mode banks the round score and advances, completing after the last movie.
func (s *Session) Next(ctx context.Context) error {
	if s.state != StateGuessed {
		return fmt.Errorf("%w: next in %s", ErrInvalidTransition, s.state)
	}
	switch run := s.active.(type) {
	case *singleRun:
		return s.load(ctx)
	case *dailyRun:
		run.score += run.pending
		run.pending = 0
		run.index++
		s.last = nil
		if run.complete() {
			s.state = StateComplete
		} else {
			s.state = StateReady
		}
	}
	return nil
}

func (s *Session) load(ctx context.Context) error {
	s.state = StateLoading
	s.last = nil
	s.lastErr = nil
	ctx = WithSessionID(ctx, s.id)

	var err error
	switch run := s.active.(type) {
	case *singleRun:
		var movie domain.MovieSnapshot
		movie, err = s.source.RandomMovie(ctx, run.kind, run.filters)
		if err == nil {
			run.movie = &movie
		}
	case *dailyRun:
		var rec domain.DailyRecord
		rec, err = s.source.DailyMovies(ctx)
		if err == nil && len(rec.Movies) == 0 {
			err = ErrEmptyDaily
		}
		if err == nil {
			*run = dailyRun{record: rec}
		}
	}
	if err != nil {
		s.lastErr = err
		s.state = StateIdle
		return err
	}
	s.state = StateReady
	return nil
}

// Stats summarises the session for display.
type Stats struct {
	Mode          Mode
	RoundCount    int
	TotalScore    int
	AverageScore  int
	DailyIndex    int
	DailyRounds   int
	DailyScore    int
	DailyMax      int
	DailyProgress float64
	Rank          string
}

// Stats returns the running totals and rank.
func (s *Session) Stats() Stats {
	st := Stats{
		Mode:        s.mode,
		RoundCount:  s.single.roundCount,
		TotalScore:  s.single.totalScore,
		DailyRounds: DailyRounds,
		DailyMax:    DailyMaxScore,
	}
	if st.RoundCount > 0 {
		st.AverageScore = int(math.Round(float64(st.TotalScore) / float64(st.RoundCount)))
	}

	daily, ok := s.active.(*dailyRun)
	if !ok {
		st.Rank = scoring.Rank(float64(st.AverageScore))
		return st
	}
	st.DailyIndex = daily.index
	st.DailyScore = daily.score
	switch {
	case daily.complete():
		st.DailyProgress = 100
	case len(daily.record.Movies) > 0:
		st.DailyProgress = float64(daily.index) / DailyRounds * 100
	}
	played := daily.index
	if played == 0 {
		played = 1
	}
	st.Rank = scoring.Rank(float64(daily.score) / float64(played))
	return st
}

// ShareText is the brag message for the active mode.
func (s *Session) ShareText() string {
	if daily, ok := s.active.(*dailyRun); ok {
		return fmt.Sprintf("🎬 Guess the Movie's Budget Daily Challenge 🎬\nRounds: %d\nScore: %d/%d\nCan you beat my score?",
			DailyRounds, daily.score, DailyMaxScore)
	}
	return fmt.Sprintf("🎬 Guess the Movie's Budget 🎬\nRounds Played: %d\nTotal Score: %d\nCan you beat my score?",
		s.single.roundCount, s.single.totalScore)
}
