package scoring

import (
	"errors"
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	const actual = int64(120_000_000)
	tests := []struct {
		name  string
		guess float64
		want  int
	}{
		{"exact", float64(actual), 100},
		{"zero guess", 0, 0},
		{"double", float64(actual) * 2, 0},
		{"one and a half", float64(actual) * 1.5, 50},
		{"half", float64(actual) / 2, 50},
		{"far overshoot", float64(actual) * 10, 0},
		{"close under", 100_000_000, 83},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.guess, actual); got != tt.want {
				t.Fatalf("Score(%v, %d) = %d, want %d", tt.guess, actual, got, tt.want)
			}
		})
	}
}

func TestScoreSymmetricInAbsoluteDifference(t *testing.T) {
	const actual = int64(80_000_000)
	for _, delta := range []float64{1, 5_000_000, 20_000_000, 79_000_000} {
		over := Score(float64(actual)+delta, actual)
		under := Score(float64(actual)-delta, actual)
		if over != under {
			t.Fatalf("delta %v: over=%d under=%d", delta, over, under)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	actuals := []int64{1, 999, 1_000_000, 63_000_000, 356_000_000}
	guesses := []float64{0, 0.5, 1, 1_000, 999_999, 50_000_000, 3_000_000_000}
	for _, a := range actuals {
		for _, g := range guesses {
			s := Score(g, a)
			if s < 0 || s > MaxRoundScore {
				t.Fatalf("Score(%v, %d) = %d out of range", g, a, s)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	res, err := Evaluate(100_000_000, 120_000_000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(res.PercentDiff-16.6667) > 0.001 {
		t.Fatalf("PercentDiff = %v, want ~16.67", res.PercentDiff)
	}
	if res.Score != 83 {
		t.Fatalf("Score = %d, want 83", res.Score)
	}
	want := "Your guess is 16.67% off. The actual budget is 120.00 million. Round Score: 83."
	if got := res.Feedback(); got != want {
		t.Fatalf("Feedback() = %q, want %q", got, want)
	}
}

func TestEvaluate_InvalidActual(t *testing.T) {
	for _, actual := range []int64{0, -10} {
		if _, err := Evaluate(10, actual); !errors.Is(err, ErrInvalidActual) {
			t.Fatalf("Evaluate(10, %d) error = %v, want ErrInvalidActual", actual, err)
		}
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Amazing Guess!"},
		{90, "Amazing Guess!"},
		{89, "Great Guess!"},
		{70, "Great Guess!"},
		{55, "Good Guess!"},
		{40, "Not Bad!"},
		{30, "Not Bad!"},
		{29, "Way Off!"},
		{0, "Way Off!"},
	}
	for _, tt := range tests {
		if got := Verdict(tt.score); got != tt.want {
			t.Fatalf("Verdict(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{95, "Movie Budget Expert"},
		{80, "Hollywood Insider"},
		{60, "Film Enthusiast"},
		{45.5, "Casual Moviegoer"},
		{10, "Movie Novice"},
	}
	for _, tt := range tests {
		if got := Rank(tt.avg); got != tt.want {
			t.Fatalf("Rank(%v) = %q, want %q", tt.avg, got, tt.want)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Evaluate(float64(i%3000)*1_000_000, 150_000_000)
	}
}
