// Package apiclient talks to the game server's HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/game"
)

// RequestIDHeader carries the game session id. The server's request id
// middleware adopts it, so one player's requests share an id in its logs.
const RequestIDHeader = "X-Request-Id"

// ErrNoEligibleMovie is matched by errors for a 404 from /movie or /daily.
var ErrNoEligibleMovie = errors.New("apiclient: no movie with a valid budget found")

// APIError is a non-200 reply from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("apiclient: server returned %d: %s", e.StatusCode, e.Message)
}

// Is lets a 404 match ErrNoEligibleMovie.
func (e *APIError) Is(target error) bool {
	return target == ErrNoEligibleMovie && e.StatusCode == http.StatusNotFound
}

// Client calls the /movie and /daily endpoints.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New returns a Client for the server at baseURL, e.g. "http://localhost:5001/api".
func New(baseURL string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse api url: %q is not absolute", baseURL)
	}
	return &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   4,
				ResponseHeaderTimeout: timeout,
			},
		},
	}, nil
}

type movieResponse struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Budget int64   `json:"budget"`
	Poster *string `json:"poster"`
	Tip    string  `json:"tip"`
}

func (m movieResponse) snapshot() domain.MovieSnapshot {
	return domain.MovieSnapshot{ID: m.ID, Title: m.Title, Budget: m.Budget, Poster: m.Poster, Tip: m.Tip}
}

type dailyResponse struct {
	Date   string          `json:"date"`
	Movies []movieResponse `json:"movies"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RandomMovie fetches one round movie.
func (c *Client) RandomMovie(ctx context.Context, kind domain.ListKind, filters domain.DiscoverFilters) (domain.MovieSnapshot, error) {
	var out movieResponse
	if err := c.get(ctx, "/movie", MovieQuery(kind, filters), &out); err != nil {
		return domain.MovieSnapshot{}, err
	}
	return out.snapshot(), nil
}

// DailyMovies fetches today's challenge.
func (c *Client) DailyMovies(ctx context.Context) (domain.DailyRecord, error) {
	var out dailyResponse
	if err := c.get(ctx, "/daily", url.Values{}, &out); err != nil {
		return domain.DailyRecord{}, err
	}
	rec := domain.DailyRecord{Date: out.Date, Movies: make([]domain.MovieSnapshot, 0, len(out.Movies))}
	for _, m := range out.Movies {
		rec.Movies = append(rec.Movies, m.snapshot())
	}
	return rec, nil
}

// MovieQuery encodes the /movie query parameters.
func MovieQuery(kind domain.ListKind, filters domain.DiscoverFilters) url.Values {
	q := url.Values{}
	if kind != "" {
		q.Set("type", string(kind))
	}
	if kind != domain.ListDiscover || filters.IsZero() {
		return q
	}
	if len(filters.GenreIDs) > 0 {
		ids := make([]string, 0, len(filters.GenreIDs))
		for _, id := range filters.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		q.Set("genres", strings.Join(ids, ","))
	}
	if filters.MinRating != nil {
		q.Set("min_rating", strconv.FormatFloat(*filters.MinRating, 'f', -1, 64))
	}
	if filters.ReleaseBefore != nil {
		q.Set("release_before", strconv.Itoa(*filters.ReleaseBefore))
	}
	if filters.ReleaseAfter != nil {
		q.Set("release_after", strconv.Itoa(*filters.ReleaseAfter))
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := game.SessionIDFromContext(ctx); ok {
		req.Header.Set(RequestIDHeader, id.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload errorResponse
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
