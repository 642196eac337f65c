package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

func TestParseDiscoverFilters(t *testing.T) {
	values, _ := url.ParseQuery("genres= 28, 12 ,&min_rating=7.5&release_before=2010&release_after=1999")

	filters, err := parseDiscoverFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filters.GenreIDs) != 2 || filters.GenreIDs[0] != 28 || filters.GenreIDs[1] != 12 {
		t.Fatalf("genres parse failed: %+v", filters.GenreIDs)
	}
	if filters.MinRating == nil || *filters.MinRating != 7.5 {
		t.Fatalf("rating parse failed: %+v", filters.MinRating)
	}
	if filters.ReleaseBefore == nil || *filters.ReleaseBefore != 2010 {
		t.Fatalf("release_before parse failed")
	}
	if filters.ReleaseAfter == nil || *filters.ReleaseAfter != 1999 {
		t.Fatalf("release_after parse failed")
	}
}

func TestParseDiscoverFilters_Empty(t *testing.T) {
	filters, err := parseDiscoverFilters(url.Values{})
	if err != nil || !filters.IsZero() {
		t.Fatalf("filters = %+v, err = %v", filters, err)
	}
}

func TestParseDiscoverFilters_Invalid(t *testing.T) {
	cases := []string{
		"genres=abc",
		"genres=-1",
		"min_rating=ten",
		"min_rating=-0.5",
		"min_rating=10.1",
		"min_rating=NaN",
		"release_before=99",
		"release_before=20100",
		"release_after=abcd",
		"release_after=1200",
		"release_before=1990&release_after=2000",
	}
	for _, raw := range cases {
		values, _ := url.ParseQuery(raw)
		if _, err := parseDiscoverFilters(values); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseListKind(t *testing.T) {
	cases := map[string]domain.ListKind{
		"":          domain.ListPopular,
		"popular":   domain.ListPopular,
		"Discover":  domain.ListDiscover,
		" discover": domain.ListDiscover,
	}
	for raw, want := range cases {
		got, err := parseListKind(raw)
		if err != nil || got != want {
			t.Fatalf("parseListKind(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := parseListKind("daily"); err == nil {
		t.Fatalf("expected error for daily")
	}
}
