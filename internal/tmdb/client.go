package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

// ErrNotFound is returned when the provider has no record for the request.
var ErrNotFound = errors.New("tmdb: not found")

// DefaultDiscoverSort favours lesser-known titles.
const DefaultDiscoverSort = "popularity.asc"

const defaultLanguage = "en-US"

// Summary is one entry of a listing page.
type Summary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Page is a single page of a movie listing.
type Page struct {
	Page         int       `json:"page"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
	Results      []Summary `json:"results"`
}

// Client defines the provider capabilities the game relies on.
type Client interface {
	Popular(ctx context.Context, page int) (Page, error)
	Discover(ctx context.Context, page int, filters domain.DiscoverFilters) (Page, error)
	Details(ctx context.Context, id int64) (domain.Movie, error)
}

// HTTPClient implements Client over the TMDb v3 HTTP API.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs a provider client rooted at baseURL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse tmdb url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   16,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// Popular fetches one page of the popular movies listing.
func (c *HTTPClient) Popular(ctx context.Context, page int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var out Page
	if err := c.get(ctx, "/movie/popular", q, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

// Discover fetches one page of the discover listing narrowed by filters.
func (c *HTTPClient) Discover(ctx context.Context, page int, filters domain.DiscoverFilters) (Page, error) {
	q := discoverValues(filters)
	q.Set("page", strconv.Itoa(page))

	var out Page
	if err := c.get(ctx, "/discover/movie", q, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

// Details fetches the full record of a single movie.
func (c *HTTPClient) Details(ctx context.Context, id int64) (domain.Movie, error) {
	var payload detailsResponse
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), url.Values{}, &payload); err != nil {
		return domain.Movie{}, err
	}
	return convertToMovie(payload), nil
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	q.Set("api_key", c.apiKey)
	q.Set("language", defaultLanguage)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode tmdb %s response: %w", path, err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		c.logger.Printf("tmdb: unexpected status %d for %s", resp.StatusCode, path)
		return fmt.Errorf("tmdb: upstream returned %d", resp.StatusCode)
	}
}

func discoverValues(filters domain.DiscoverFilters) url.Values {
	q := url.Values{}
	q.Set("sort_by", DefaultDiscoverSort)
	if len(filters.GenreIDs) > 0 {
		ids := make([]string, 0, len(filters.GenreIDs))
		for _, id := range filters.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	if filters.MinRating != nil {
		q.Set("vote_average.gte", strconv.FormatFloat(*filters.MinRating, 'f', -1, 64))
	}
	if filters.ReleaseBefore != nil {
		q.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", *filters.ReleaseBefore))
	}
	if filters.ReleaseAfter != nil {
		q.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", *filters.ReleaseAfter))
	}
	return q
}

type detailsResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Budget      *int64   `json:"budget"`
	PosterPath  *string  `json:"poster_path"`
	Overview    *string  `json:"overview"`
	ReleaseDate *string  `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	Runtime     *int     `json:"runtime"`
}

func convertToMovie(payload detailsResponse) domain.Movie {
	movie := domain.Movie{
		ID:          payload.ID,
		Title:       payload.Title,
		Budget:      derefInt64(payload.Budget),
		PosterPath:  nonEmpty(payload.PosterPath),
		ReleaseDate: nonEmpty(payload.ReleaseDate),
		VoteAverage: payload.VoteAverage,
		Runtime:     payload.Runtime,
	}
	if payload.Overview != nil {
		movie.Overview = strings.TrimSpace(*payload.Overview)
	}
	return movie
}

func derefInt64(ptr *int64) int64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func nonEmpty(ptr *string) *string {
	if ptr == nil || strings.TrimSpace(*ptr) == "" {
		return nil
	}
	return ptr
}
