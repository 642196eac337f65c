package challenge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/repository"
	"github.com/Clark-Hu/movie-budget-game/internal/tmdb"
)

// fakeCatalog serves the same listing for every page.
type fakeCatalog struct {
	mu          sync.Mutex
	listing     []tmdb.Summary
	movies      map[int64]domain.Movie
	detailErrs  map[int64]error
	listErr     error
	pages       []int
	filters     []domain.DiscoverFilters
	detailCalls []int64
}

func newFakeCatalog(budgets map[int64]int64) *fakeCatalog {
	c := &fakeCatalog{movies: make(map[int64]domain.Movie), detailErrs: make(map[int64]error)}
	for id := int64(1); id <= int64(len(budgets)); id++ {
		poster := fmt.Sprintf("/poster-%d.jpg", id)
		c.listing = append(c.listing, tmdb.Summary{ID: id, Title: fmt.Sprintf("Movie %d", id)})
		c.movies[id] = domain.Movie{
			ID:         id,
			Title:      fmt.Sprintf("Movie %d", id),
			Budget:     budgets[id],
			PosterPath: &poster,
			Overview:   fmt.Sprintf("Overview %d", id),
		}
	}
	return c
}

func (c *fakeCatalog) Popular(_ context.Context, page int) (tmdb.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, page)
	if c.listErr != nil {
		return tmdb.Page{}, c.listErr
	}
	return tmdb.Page{Page: page, TotalPages: DefaultMaxPage, Results: append([]tmdb.Summary(nil), c.listing...)}, nil
}

func (c *fakeCatalog) Discover(ctx context.Context, page int, filters domain.DiscoverFilters) (tmdb.Page, error) {
	c.mu.Lock()
	c.filters = append(c.filters, filters)
	c.mu.Unlock()
	return c.Popular(ctx, page)
}

func (c *fakeCatalog) Details(_ context.Context, id int64) (domain.Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailCalls = append(c.detailCalls, id)
	if err, ok := c.detailErrs[id]; ok {
		return domain.Movie{}, err
	}
	movie, ok := c.movies[id]
	if !ok {
		return domain.Movie{}, tmdb.ErrNotFound
	}
	return movie, nil
}

func (c *fakeCatalog) listCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

func budgets(values ...int64) map[int64]int64 {
	out := make(map[int64]int64, len(values))
	for i, v := range values {
		out[int64(i+1)] = v
	}
	return out
}

func newTestService(catalog tmdb.Client, daily repository.DailyStore, seed int64) *Service {
	return New(catalog, daily, Options{
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Seed:         seed,
		Now:          func() time.Time { return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC) },
		Logger:       log.New(io.Discard, "", 0),
	})
}

func TestRandomMovie_ReturnsEligibleMovie(t *testing.T) {
	catalog := newFakeCatalog(budgets(0, 0, 120_000_000, 0, 0))
	svc := newTestService(catalog, repository.NewDailyMemory(), 1)

	movie, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
	if err != nil {
		t.Fatalf("RandomMovie: %v", err)
	}
	if movie.ID != 3 || movie.Budget != 120_000_000 {
		t.Fatalf("movie = %+v, want id 3", movie)
	}
	if movie.Poster == nil || *movie.Poster != "https://image.tmdb.org/t/p/w500/poster-3.jpg" {
		t.Fatalf("poster = %v", movie.Poster)
	}
	if movie.Tip != "Overview 3" {
		t.Fatalf("tip = %q", movie.Tip)
	}
}

func TestRandomMovie_StopsAtFirstEligible(t *testing.T) {
	catalog := newFakeCatalog(budgets(10, 20, 30, 40, 50, 60, 70, 80))
	svc := newTestService(catalog, repository.NewDailyMemory(), 7)

	if _, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{}); err != nil {
		t.Fatalf("RandomMovie: %v", err)
	}
	if len(catalog.detailCalls) != 1 {
		t.Fatalf("detail calls = %d, want 1", len(catalog.detailCalls))
	}
}

func TestRandomMovie_ReproducibleWithSeed(t *testing.T) {
	pick := func() (domain.MovieSnapshot, []int) {
		catalog := newFakeCatalog(budgets(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
		svc := newTestService(catalog, repository.NewDailyMemory(), 42)
		movie, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
		if err != nil {
			t.Fatalf("RandomMovie: %v", err)
		}
		return movie, catalog.pages
	}

	a, pagesA := pick()
	b, pagesB := pick()
	if a.ID != b.ID || !reflect.DeepEqual(pagesA, pagesB) {
		t.Fatalf("same seed gave different picks: %d/%v vs %d/%v", a.ID, pagesA, b.ID, pagesB)
	}
}

func TestRandomMovie_PageWithinBounds(t *testing.T) {
	catalog := newFakeCatalog(budgets(5))
	svc := New(catalog, repository.NewDailyMemory(), Options{MaxPage: 3, Seed: 9, Logger: log.New(io.Discard, "", 0)})

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		if _, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{}); err != nil {
			t.Fatalf("RandomMovie: %v", err)
		}
	}
	for _, p := range catalog.pages {
		if p < 1 || p > 3 {
			t.Fatalf("page %d outside [1,3]", p)
		}
		seen[p] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected every page in [1,3] to be sampled, got %v", seen)
	}
}

func TestRandomMovie_DiscoverPassesFilters(t *testing.T) {
	catalog := newFakeCatalog(budgets(50))
	svc := newTestService(catalog, repository.NewDailyMemory(), 3)

	rating := 6.5
	before := 2005
	filters := domain.DiscoverFilters{GenreIDs: []int{28}, MinRating: &rating, ReleaseBefore: &before}
	if _, err := svc.RandomMovie(context.Background(), domain.ListDiscover, filters); err != nil {
		t.Fatalf("RandomMovie: %v", err)
	}
	if len(catalog.filters) != 1 || !reflect.DeepEqual(catalog.filters[0], filters) {
		t.Fatalf("filters forwarded = %+v", catalog.filters)
	}
}

func TestRandomMovie_Errors(t *testing.T) {
	t.Run("no eligible movie", func(t *testing.T) {
		svc := newTestService(newFakeCatalog(budgets(0, 0, 0)), repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
		if !errors.Is(err, ErrNoEligibleMovie) {
			t.Fatalf("error = %v, want ErrNoEligibleMovie", err)
		}
	})

	t.Run("empty page", func(t *testing.T) {
		svc := newTestService(newFakeCatalog(nil), repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListDiscover, domain.DiscoverFilters{})
		if !errors.Is(err, ErrNoEligibleMovie) {
			t.Fatalf("error = %v, want ErrNoEligibleMovie", err)
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		catalog := newFakeCatalog(budgets(10))
		catalog.listErr = errors.New("connection refused")
		svc := newTestService(catalog, repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
		}
	})

	t.Run("detail failure", func(t *testing.T) {
		catalog := newFakeCatalog(budgets(10))
		catalog.detailErrs[1] = errors.New("tmdb: upstream returned 503")
		svc := newTestService(catalog, repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
		}
	})

	t.Run("detail not found is skipped", func(t *testing.T) {
		catalog := newFakeCatalog(budgets(10, 20))
		catalog.detailErrs[1] = tmdb.ErrNotFound
		catalog.detailErrs[2] = tmdb.ErrNotFound
		svc := newTestService(catalog, repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListPopular, domain.DiscoverFilters{})
		if !errors.Is(err, ErrNoEligibleMovie) {
			t.Fatalf("error = %v, want ErrNoEligibleMovie", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc := newTestService(newFakeCatalog(budgets(10)), repository.NewDailyMemory(), 1)
		_, err := svc.RandomMovie(context.Background(), domain.ListKind("trending"), domain.DiscoverFilters{})
		if !errors.Is(err, ErrUnknownListKind) {
			t.Fatalf("error = %v, want ErrUnknownListKind", err)
		}
	})
}

func TestDailyMoviesFor_Idempotent(t *testing.T) {
	catalog := newFakeCatalog(budgets(10, 0, 30, 40, 0, 60, 70, 80, 90, 100))
	svc := newTestService(catalog, repository.NewDailyMemory(), 11)
	ctx := context.Background()

	first, err := svc.DailyMoviesFor(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first.Movies) != DailySize {
		t.Fatalf("movies = %d, want %d", len(first.Movies), DailySize)
	}
	seen := make(map[int64]bool)
	for _, m := range first.Movies {
		if m.Budget <= 0 {
			t.Fatalf("ineligible movie in daily set: %+v", m)
		}
		if seen[m.ID] {
			t.Fatalf("duplicate movie %d in daily set", m.ID)
		}
		seen[m.ID] = true
	}

	second, err := svc.DailyMoviesFor(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("daily record changed between calls:\n%+v\n%+v", first, second)
	}
	if catalog.listCalls() != 1 {
		t.Fatalf("listing requested %d times, want 1", catalog.listCalls())
	}
}

func TestDailyMoviesFor_DistinctDates(t *testing.T) {
	catalog := newFakeCatalog(budgets(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))
	daily := repository.NewDailyMemory()
	svc := newTestService(catalog, daily, 5)
	ctx := context.Background()

	a, err := svc.DailyMoviesFor(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("day one: %v", err)
	}
	b, err := svc.DailyMoviesFor(ctx, "2026-10-20")
	if err != nil {
		t.Fatalf("day two: %v", err)
	}
	if a.Date == b.Date {
		t.Fatalf("records share a date")
	}
	if len(a.Movies) != DailySize || len(b.Movies) != DailySize {
		t.Fatalf("sizes = %d, %d", len(a.Movies), len(b.Movies))
	}
	if reflect.DeepEqual(a.Movies, b.Movies) {
		t.Fatalf("expected different sets for different dates with this seed")
	}
	if daily.Len() != 2 {
		t.Fatalf("stored records = %d, want 2", daily.Len())
	}
}

func TestDailyMoviesFor_StopsAtFive(t *testing.T) {
	catalog := newFakeCatalog(budgets(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12))
	svc := newTestService(catalog, repository.NewDailyMemory(), 2)

	if _, err := svc.DailyMoviesFor(context.Background(), "2026-10-19"); err != nil {
		t.Fatalf("DailyMoviesFor: %v", err)
	}
	if len(catalog.detailCalls) != DailySize {
		t.Fatalf("detail calls = %d, want %d", len(catalog.detailCalls), DailySize)
	}
}

func TestDailyMoviesFor_Shortfall(t *testing.T) {
	catalog := newFakeCatalog(budgets(0, 10, 0, 20, 0, 0, 30))
	catalog.detailErrs[2] = errors.New("timeout")
	daily := repository.NewDailyMemory()
	svc := newTestService(catalog, daily, 4)

	rec, err := svc.DailyMoviesFor(context.Background(), "2026-10-19")
	if err != nil {
		t.Fatalf("DailyMoviesFor: %v", err)
	}
	if len(rec.Movies) != 2 {
		t.Fatalf("movies = %d, want 2 (failed detail lookups are skipped)", len(rec.Movies))
	}
	if daily.Len() != 1 {
		t.Fatalf("shortfall record should be stored")
	}
}

func TestDailyMoviesFor_NothingEligible(t *testing.T) {
	catalog := newFakeCatalog(budgets(0, 0, 0))
	daily := repository.NewDailyMemory()
	svc := newTestService(catalog, daily, 4)

	_, err := svc.DailyMoviesFor(context.Background(), "2026-10-19")
	if !errors.Is(err, ErrNoEligibleMovie) {
		t.Fatalf("error = %v, want ErrNoEligibleMovie", err)
	}
	if daily.Len() != 0 {
		t.Fatalf("an empty record must not be stored")
	}
}

func TestDailyMoviesFor_ListingFailure(t *testing.T) {
	catalog := newFakeCatalog(budgets(10))
	catalog.listErr = errors.New("dial tcp: i/o timeout")
	daily := repository.NewDailyMemory()
	svc := newTestService(catalog, daily, 4)

	_, err := svc.DailyMoviesFor(context.Background(), "2026-10-19")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if daily.Len() != 0 {
		t.Fatalf("nothing should be stored after a listing failure")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (domain.DailyRecord, error) {
	return domain.DailyRecord{}, errors.New("connection reset")
}

func (failingStore) InsertIfAbsent(context.Context, domain.DailyRecord) (domain.DailyRecord, bool, error) {
	return domain.DailyRecord{}, false, errors.New("connection reset")
}

func TestDailyMoviesFor_StoreFailure(t *testing.T) {
	catalog := newFakeCatalog(budgets(10))
	svc := newTestService(catalog, failingStore{}, 4)

	_, err := svc.DailyMoviesFor(context.Background(), "2026-10-19")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("error = %v, want ErrUpstreamUnavailable", err)
	}
	if catalog.listCalls() != 0 {
		t.Fatalf("provider must not be called when the store lookup fails")
	}
}

func TestDailyMovies_UsesClockDate(t *testing.T) {
	svc := newTestService(newFakeCatalog(budgets(10, 20, 30, 40, 50)), repository.NewDailyMemory(), 4)

	rec, err := svc.DailyMovies(context.Background())
	if err != nil {
		t.Fatalf("DailyMovies: %v", err)
	}
	if rec.Date != "2026-10-19" {
		t.Fatalf("date = %s, want 2026-10-19", rec.Date)
	}
}

func TestDailyMoviesFor_ConcurrentFirstRequests(t *testing.T) {
	catalog := newFakeCatalog(budgets(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15))
	daily := repository.NewDailyMemory()
	svc := newTestService(catalog, daily, 8)

	const callers = 6
	results := make([]domain.DailyRecord, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := svc.DailyMoviesFor(context.Background(), "2026-10-19")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = rec
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if !reflect.DeepEqual(results[i].Movies, results[0].Movies) {
			t.Fatalf("caller %d saw a different record", i)
		}
	}
	if daily.Len() != 1 {
		t.Fatalf("stored records = %d, want 1", daily.Len())
	}
}
