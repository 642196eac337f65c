package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/movie-budget-game/internal/challenge"
	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

const (
	maxGenreIDs = 20
	minYear     = 1870
	maxYear     = 2999
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type movieResponse struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Budget int64   `json:"budget"`
	Poster *string `json:"poster"`
	Tip    string  `json:"tip"`
}

type dailyResponse struct {
	Date   string          `json:"date"`
	Movies []movieResponse `json:"movies"`
}

func (s *Server) handleRandomMovie(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind, err := parseListKind(query.Get("type"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	var filters domain.DiscoverFilters
	if kind == domain.ListDiscover {
		filters, err = parseDiscoverFilters(query)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
	}

	movie, err := s.games.RandomMovie(r.Context(), kind, filters)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
	case errors.Is(err, challenge.ErrNoEligibleMovie):
		s.respondError(w, http.StatusNotFound, "NO_ELIGIBLE_MOVIE", "No movie with a valid budget found.")
	case timedOut(r):
		s.logger.Printf("random movie (%s) timed out: %v", kind, err)
	default:
		s.logger.Printf("random movie (%s) error: %v", kind, err)
		s.respondError(w, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", "Failed to fetch movie data.")
	}
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	rec, err := s.games.DailyMovies(r.Context())
	switch {
	case err == nil:
		resp := dailyResponse{Date: rec.Date, Movies: make([]movieResponse, 0, len(rec.Movies))}
		for _, m := range rec.Movies {
			resp.Movies = append(resp.Movies, toMovieResponse(m))
		}
		s.respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, challenge.ErrNoEligibleMovie):
		s.respondError(w, http.StatusNotFound, "NO_ELIGIBLE_MOVIE", "No movie with a valid budget found.")
	case timedOut(r):
		s.logger.Printf("daily movies timed out: %v", err)
	default:
		s.logger.Printf("daily movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", "Failed to fetch daily movies.")
	}
}

// timedOut reports whether the request deadline passed. The timeout
// middleware writes the 504 for those, so handlers must not write a reply.
func timedOut(r *http.Request) bool {
	return errors.Is(r.Context().Err(), context.DeadlineExceeded)
}

func parseListKind(raw string) (domain.ListKind, error) {
	switch kind := domain.ListKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "", domain.ListPopular:
		return domain.ListPopular, nil
	case domain.ListDiscover:
		return kind, nil
	default:
		return "", fmt.Errorf("invalid type %q, expected popular or discover", raw)
	}
}

func parseDiscoverFilters(query url.Values) (domain.DiscoverFilters, error) {
	var filters domain.DiscoverFilters

	if val := strings.TrimSpace(query.Get("genres")); val != "" {
		for _, part := range strings.Split(val, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return filters, fmt.Errorf("invalid genres value")
			}
			filters.GenreIDs = append(filters.GenreIDs, id)
		}
		if len(filters.GenreIDs) > maxGenreIDs {
			return filters, fmt.Errorf("too many genres")
		}
	}
	if val := strings.TrimSpace(query.Get("min_rating")); val != "" {
		rating, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(rating) || rating < 0 || rating > 10 {
			return filters, fmt.Errorf("invalid min_rating value")
		}
		filters.MinRating = &rating
	}
	if val := strings.TrimSpace(query.Get("release_before")); val != "" {
		year, err := parseYear(val)
		if err != nil {
			return filters, fmt.Errorf("invalid release_before value")
		}
		filters.ReleaseBefore = &year
	}
	if val := strings.TrimSpace(query.Get("release_after")); val != "" {
		year, err := parseYear(val)
		if err != nil {
			return filters, fmt.Errorf("invalid release_after value")
		}
		filters.ReleaseAfter = &year
	}
	if filters.ReleaseBefore != nil && filters.ReleaseAfter != nil && *filters.ReleaseAfter > *filters.ReleaseBefore {
		return filters, fmt.Errorf("release_after cannot be later than release_before")
	}
	return filters, nil
}

func parseYear(val string) (int, error) {
	if len(val) != 4 {
		return 0, fmt.Errorf("year must have four digits")
	}
	year, err := strconv.Atoi(val)
	if err != nil || year < minYear || year > maxYear {
		return 0, fmt.Errorf("year out of range")
	}
	return year, nil
}

func toMovieResponse(m domain.MovieSnapshot) movieResponse {
	return movieResponse{ID: m.ID, Title: m.Title, Budget: m.Budget, Poster: m.Poster, Tip: m.Tip}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Error: message,
		Code:  code,
	})
}
