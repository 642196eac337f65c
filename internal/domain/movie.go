package domain

import "strings"

// DefaultTip is shown when the provider has no overview for a movie.
const DefaultTip = "No tip available."

// ListKind selects the provider listing a movie is sampled from.
type ListKind string

const (
	ListPopular  ListKind = "popular"
	ListDiscover ListKind = "discover"
)

// Movie is the provider-sourced detail record for a single title.
type Movie struct {
	ID          int64
	Title       string
	Budget      int64
	PosterPath  *string
	Overview    string
	ReleaseDate *string
	VoteAverage *float64
	Runtime     *int
}

// Eligible reports whether the movie can be used in a round.
func (m Movie) Eligible() bool {
	return m.Budget > 0
}

// MovieSnapshot is the form served to players and stored in daily records.
type MovieSnapshot struct {
	ID     int64   `json:"id" bson:"id"`
	Title  string  `json:"title" bson:"title"`
	Budget int64   `json:"budget" bson:"budget"`
	Poster *string `json:"poster" bson:"poster"`
	Tip    string  `json:"tip" bson:"tip"`
}

// NewSnapshot converts a provider movie into its player-facing form, resolving
// the poster path against imageBaseURL.
func NewSnapshot(movie Movie, imageBaseURL string) MovieSnapshot {
	snap := MovieSnapshot{
		ID:     movie.ID,
		Title:  movie.Title,
		Budget: movie.Budget,
		Tip:    movie.Overview,
	}
	if strings.TrimSpace(snap.Tip) == "" {
		snap.Tip = DefaultTip
	}
	if movie.PosterPath != nil && *movie.PosterPath != "" {
		poster := strings.TrimRight(imageBaseURL, "/") + "/" + strings.TrimLeft(*movie.PosterPath, "/")
		snap.Poster = &poster
	}
	return snap
}

// DiscoverFilters narrows the discover listing. Nil or empty fields apply no constraint.
type DiscoverFilters struct {
	GenreIDs      []int
	MinRating     *float64
	ReleaseBefore *int
	ReleaseAfter  *int
}

// IsZero reports whether no filter is set.
func (f DiscoverFilters) IsZero() bool {
	return len(f.GenreIDs) == 0 && f.MinRating == nil && f.ReleaseBefore == nil && f.ReleaseAfter == nil
}
