// Package challenge picks movies from the provider for single rounds and for
// the once-per-day challenge set.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/repository"
	"github.com/Clark-Hu/movie-budget-game/internal/tmdb"
)

const (
	// DefaultMaxPage is the highest listing page sampled; the provider
	// rejects pages above 500.
	DefaultMaxPage = 500
	// DailySize is the number of movies in a daily challenge.
	DailySize = 5
)

var (
	// ErrNoEligibleMovie means the sampled page had no movie with a budget.
	ErrNoEligibleMovie = errors.New("challenge: no movie with a valid budget found")
	// ErrUpstreamUnavailable wraps provider and storage failures.
	ErrUpstreamUnavailable = errors.New("challenge: upstream unavailable")
	// ErrUnknownListKind is returned for a list kind other than popular or discover.
	ErrUnknownListKind = errors.New("challenge: unknown list kind")
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	ImageBaseURL string
	MaxPage      int
	// Seed fixes the random source; zero seeds from the clock.
	Seed   int64
	Now    func() time.Time
	Logger *log.Logger
}

// Service implements movie selection over a provider and a daily store.
type Service struct {
	catalog      tmdb.Client
	daily        repository.DailyStore
	imageBaseURL string
	maxPage      int
	now          func() time.Time
	logger       *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New constructs a Service.
func New(catalog tmdb.Client, daily repository.DailyStore, opts Options) *Service {
	if opts.MaxPage <= 0 || opts.MaxPage > DefaultMaxPage {
		opts.MaxPage = DefaultMaxPage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		catalog:      catalog,
		daily:        daily,
		imageBaseURL: opts.ImageBaseURL,
		maxPage:      opts.MaxPage,
		now:          opts.Now,
		logger:       opts.Logger,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// RandomMovie samples one random page of the listing selected by kind and
// returns the first movie, in shuffled order, that has a budget.
func (s *Service) RandomMovie(ctx context.Context, kind domain.ListKind, filters domain.DiscoverFilters) (domain.MovieSnapshot, error) {
	page := s.randomPage()

	var (
		listing tmdb.Page
		err     error
	)
	switch kind {
	case domain.ListPopular:
		listing, err = s.catalog.Popular(ctx, page)
	case domain.ListDiscover:
		listing, err = s.catalog.Discover(ctx, page, filters)
	default:
		return domain.MovieSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownListKind, kind)
	}
	if err != nil {
		return domain.MovieSnapshot{}, fmt.Errorf("%w: list %s page %d: %v", ErrUpstreamUnavailable, kind, page, err)
	}

	for _, id := range s.shuffledIDs(listing.Results) {
		movie, err := s.catalog.Details(ctx, id)
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				continue
			}
			return domain.MovieSnapshot{}, fmt.Errorf("%w: details %d: %v", ErrUpstreamUnavailable, id, err)
		}
		if movie.Eligible() {
			return domain.NewSnapshot(movie, s.imageBaseURL), nil
		}
	}
	return domain.MovieSnapshot{}, ErrNoEligibleMovie
}

// DailyMovies returns the challenge for the current UTC date.
func (s *Service) DailyMovies(ctx context.Context) (domain.DailyRecord, error) {
	return s.DailyMoviesFor(ctx, domain.DateKey(s.now()))
}

// DailyMoviesFor returns the stored challenge for date, generating and
// storing it on the first request for that date.
func (s *Service) DailyMoviesFor(ctx context.Context, date string) (domain.DailyRecord, error) {
	rec, err := s.daily.Get(ctx, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.DailyRecord{}, fmt.Errorf("%w: load daily %s: %v", ErrUpstreamUnavailable, date, err)
	}

	movies, err := s.generateDaily(ctx)
	if err != nil {
		return domain.DailyRecord{}, err
	}
	if len(movies) == 0 {
		return domain.DailyRecord{}, ErrNoEligibleMovie
	}
	if len(movies) < DailySize {
		s.logger.Printf("challenge: daily %s has only %d eligible movies", date, len(movies))
	}

	stored, inserted, err := s.daily.InsertIfAbsent(ctx, domain.DailyRecord{Date: date, Movies: movies})
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("%w: store daily %s: %v", ErrUpstreamUnavailable, date, err)
	}
	if !inserted {
		s.logger.Printf("challenge: daily %s was created concurrently, serving stored record", date)
	}
	return stored, nil
}

func (s *Service) generateDaily(ctx context.Context) ([]domain.MovieSnapshot, error) {
	page := s.randomPage()
	listing, err := s.catalog.Popular(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: list popular page %d: %v", ErrUpstreamUnavailable, page, err)
	}

	movies := make([]domain.MovieSnapshot, 0, DailySize)
	for _, id := range s.shuffledIDs(listing.Results) {
		if len(movies) >= DailySize {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		movie, err := s.catalog.Details(ctx, id)
		if err != nil {
			s.logger.Printf("challenge: skipping movie %d: %v", id, err)
			continue
		}
		if movie.Eligible() {
			movies = append(movies, domain.NewSnapshot(movie, s.imageBaseURL))
		}
	}
	return movies, nil
}

func (s *Service) randomPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(s.maxPage) + 1
}

func (s *Service) shuffledIDs(results []tmdb.Summary) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	s.mu.Lock()
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	s.mu.Unlock()
	return ids
}
