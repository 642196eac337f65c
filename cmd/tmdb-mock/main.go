package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type movieEntry struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Budget      *int64   `json:"budget"`
	PosterPath  *string  `json:"poster_path"`
	Overview    *string  `json:"overview"`
	ReleaseDate *string  `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	Runtime     *int     `json:"runtime"`
	GenreIDs    []int    `json:"genre_ids"`
}

type fixture struct {
	PageSize int          `json:"page_size"`
	Movies   []movieEntry `json:"movies"`
}

type summary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type pageResponse struct {
	Page         int       `json:"page"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
	Results      []summary `json:"results"`
}

type statusResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "cmd/tmdb-mock/testdata/mock-tmdb.json", "path to mock data file")
		apiKey  = flag.String("api-key", "", "require this api_key on every request (empty accepts any)")
		logReqs = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read mock data: %v", err)
	}

	var payload fixture
	if err := json.Unmarshal(file, &payload); err != nil {
		log.Fatalf("parse mock data: %v", err)
	}

	var handler http.Handler = newMux(payload, *apiKey)
	if *logReqs {
		log.Printf("loaded %d mock movies", len(payload.Movies))
		next := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	addr := ":" + *port
	log.Printf("mock tmdb listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func newMux(data fixture, apiKey string) http.Handler {
	if data.PageSize <= 0 {
		data.PageSize = 20
	}
	byID := make(map[int64]movieEntry, len(data.Movies))
	for _, m := range data.Movies {
		byID[m.ID] = m
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /movie/popular", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, paginate(data.Movies, data.PageSize, r.URL.Query().Get("page")))
	})
	mux.HandleFunc("GET /discover/movie", func(w http.ResponseWriter, r *http.Request) {
		matched, err := discover(data.Movies, r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, statusResponse{StatusCode: 22, StatusMessage: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, paginate(matched, data.PageSize, r.URL.Query().Get("page")))
	})
	mux.HandleFunc("GET /movie/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		entry, ok := byID[id]
		if err != nil || !ok {
			writeJSON(w, http.StatusNotFound, statusResponse{StatusCode: 34, StatusMessage: "The resource you requested could not be found."})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.URL.Query().Get("api_key") != apiKey {
			writeJSON(w, http.StatusUnauthorized, statusResponse{StatusCode: 7, StatusMessage: "Invalid API key: You must be granted a valid key."})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// paginate wraps page numbers past the end so any page in 1..500 has results.
func paginate(movies []movieEntry, size int, rawPage string) pageResponse {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	total := (len(movies) + size - 1) / size
	resp := pageResponse{Page: page, TotalPages: total, TotalResults: len(movies), Results: []summary{}}
	if total == 0 {
		return resp
	}
	start := ((page - 1) % total) * size
	end := start + size
	if end > len(movies) {
		end = len(movies)
	}
	for _, m := range movies[start:end] {
		resp.Results = append(resp.Results, summary{ID: m.ID, Title: m.Title})
	}
	return resp
}

func discover(movies []movieEntry, q map[string][]string) ([]movieEntry, error) {
	get := func(key string) string {
		if vals := q[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	var genres []int
	if raw := get("with_genres"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid with_genres %q", raw)
			}
			genres = append(genres, id)
		}
	}
	var minRating *float64
	if raw := get("vote_average.gte"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vote_average.gte %q", raw)
		}
		minRating = &v
	}
	before := get("primary_release_date.lte")
	after := get("primary_release_date.gte")

	out := make([]movieEntry, 0, len(movies))
	for _, m := range movies {
		if !hasAllGenres(m.GenreIDs, genres) {
			continue
		}
		if minRating != nil && (m.VoteAverage == nil || *m.VoteAverage < *minRating) {
			continue
		}
		if before != "" || after != "" {
			// ISO dates compare lexically.
			if m.ReleaseDate == nil || *m.ReleaseDate == "" {
				continue
			}
			if before != "" && *m.ReleaseDate > before {
				continue
			}
			if after != "" && *m.ReleaseDate < after {
				continue
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func hasAllGenres(have, want []int) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
