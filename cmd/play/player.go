package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/game"
	"github.com/Clark-Hu/movie-budget-game/internal/scoring"
)

const posterPlaceholder = "[no poster available]"

const helpText = `Enter your guess in millions (0-3000), or a command:
  next                 move to the next round
  reset                clear the score and start over
  share                print a shareable summary
  stats                show your stats
  mode popular|daily   switch mode
  mode discover [genres=28,12] [min_rating=7] [before=2010] [after=1990]
  help                 show this message
  quit                 leave the game`

type player struct {
	session *game.Session
	in      *bufio.Scanner
	out     io.Writer
	printer *message.Printer
}

func newPlayer(session *game.Session, in io.Reader, out io.Writer) *player {
	return &player{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
		printer: message.NewPrinter(language.English),
	}
}

func (p *player) run(ctx context.Context, mode game.Mode) error {
	fmt.Fprintln(p.out, "🎬 Guess the Movie's Budget 🎬")
	fmt.Fprintf(p.out, "Session: %s\n", p.session.ID())
	fmt.Fprintln(p.out, helpText)
	p.report(p.session.SetMode(ctx, mode, domain.DiscoverFilters{}))

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			return p.in.Err()
		}
		if quit := p.handle(ctx, strings.TrimSpace(p.in.Text())); quit {
			return nil
		}
	}
}

// handle executes one input line and reports whether the player quit.
func (p *player) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		fmt.Fprintln(p.out, "Thanks for playing!")
		return true
	case "help", "?":
		fmt.Fprintln(p.out, helpText)
	case "next", "n":
		p.report(p.session.Next(ctx))
	case "reset":
		p.report(p.session.Reset(ctx))
	case "share":
		fmt.Fprintln(p.out, p.session.ShareText())
	case "stats":
		p.printStats()
	case "mode":
		p.switchMode(ctx, fields[1:])
	default:
		p.guess(line)
	}
	return false
}

func (p *player) switchMode(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(p.out, "Current mode: %s\n", p.session.Mode())
		return
	}
	mode, err := game.ParseMode(strings.ToLower(args[0]))
	if err != nil {
		fmt.Fprintln(p.out, err)
		return
	}
	filters, err := parseFilterArgs(args[1:])
	if err != nil {
		fmt.Fprintln(p.out, err)
		return
	}
	p.report(p.session.SetMode(ctx, mode, filters))
}

func (p *player) guess(input string) {
	result, err := p.session.Submit(input)
	switch {
	case errors.Is(err, game.ErrInvalidGuess):
		fmt.Fprintln(p.out, "Please enter a valid budget between 0 and 3000 million.")
		return
	case errors.Is(err, game.ErrInvalidTransition):
		fmt.Fprintln(p.out, "Type 'next' for a new round or 'reset' to start over.")
		return
	case err != nil:
		fmt.Fprintf(p.out, "Could not score that guess: %v\n", err)
		return
	}
	p.printResult(result)
}

// report prints the outcome of a state change: the next movie, the daily
// summary, or the load error.
func (p *player) report(err error) {
	if err != nil {
		if errors.Is(err, game.ErrInvalidTransition) {
			switch p.session.State() {
			case game.StateComplete:
				fmt.Fprintln(p.out, "The daily challenge is complete. Type 'reset' to play again.")
			case game.StateIdle:
				fmt.Fprintln(p.out, "No movie loaded. Type 'reset' to try again.")
			default:
				fmt.Fprintln(p.out, "Make a guess first.")
			}
			return
		}
		fmt.Fprintf(p.out, "Could not load a movie: %v\n", err)
		fmt.Fprintln(p.out, "Try 'reset' or change the filters with 'mode discover ...'.")
		return
	}
	switch p.session.State() {
	case game.StateReady:
		p.printMovie()
	case game.StateComplete:
		st := p.session.Stats()
		fmt.Fprintln(p.out, "Daily Challenge Complete!")
		fmt.Fprintf(p.out, "Your Score: %d/%d\n", st.DailyScore, st.DailyMax)
		fmt.Fprintf(p.out, "Rank: %s\n", st.Rank)
		fmt.Fprintln(p.out, "Type 'share' to brag or 'reset' to play again.")
	}
}

func (p *player) printMovie() {
	movie, ok := p.session.Current()
	if !ok {
		return
	}
	st := p.session.Stats()
	if p.session.Mode() == game.ModeDaily {
		fmt.Fprintf(p.out, "\nRound %d/%d\n", st.DailyIndex+1, st.DailyRounds)
	} else {
		fmt.Fprintf(p.out, "\nRound %d\n", st.RoundCount+1)
	}
	fmt.Fprintf(p.out, "Title:  %s\n", movie.Title)
	fmt.Fprintf(p.out, "Poster: %s\n", posterText(movie.Poster))
	fmt.Fprintf(p.out, "Tip:    %s\n", movie.Tip)
	fmt.Fprintln(p.out, "What was the production budget, in millions?")
}

func (p *player) printResult(res scoring.Result) {
	fmt.Fprintln(p.out, scoring.Verdict(res.Score))
	fmt.Fprintln(p.out, res.Feedback())
	p.printer.Fprintf(p.out, "Actual budget: $%d (you guessed $%.0f)\n", res.Actual, res.Guess)
	fmt.Fprintln(p.out, "Type 'next' to continue.")
}

func (p *player) printStats() {
	st := p.session.Stats()
	if st.Mode == game.ModeDaily {
		fmt.Fprintf(p.out, "Progress: %d/%d rounds (%.0f%%)\n", st.DailyIndex, st.DailyRounds, st.DailyProgress)
		fmt.Fprintf(p.out, "Current Score: %d / Max Possible: %d\n", st.DailyScore, st.DailyMax)
	} else {
		p.printer.Fprintf(p.out, "Rounds Played: %d\nTotal Score: %d\nAverage Score: %d/100\n", st.RoundCount, st.TotalScore, st.AverageScore)
	}
	fmt.Fprintf(p.out, "Rank: %s\n", st.Rank)
	fmt.Fprintf(p.out, "Session: %s\n", p.session.ID())
}

func posterText(poster *string) string {
	if poster == nil || *poster == "" {
		return posterPlaceholder
	}
	return *poster
}

// parseFilterArgs reads key=value discover filters.
func parseFilterArgs(args []string) (domain.DiscoverFilters, error) {
	var filters domain.DiscoverFilters
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || val == "" {
			return filters, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch strings.ToLower(key) {
		case "genres":
			for _, part := range strings.Split(val, ",") {
				id, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil || id <= 0 {
					return filters, fmt.Errorf("invalid genre id %q", part)
				}
				filters.GenreIDs = append(filters.GenreIDs, id)
			}
		case "min_rating", "rating":
			rating, err := strconv.ParseFloat(val, 64)
			if err != nil || rating < 0 || rating > 10 {
				return filters, fmt.Errorf("min_rating must be between 0 and 10")
			}
			filters.MinRating = &rating
		case "before", "release_before":
			year, err := strconv.Atoi(val)
			if err != nil || len(val) != 4 {
				return filters, fmt.Errorf("before must be a four digit year")
			}
			filters.ReleaseBefore = &year
		case "after", "release_after":
			year, err := strconv.Atoi(val)
			if err != nil || len(val) != 4 {
				return filters, fmt.Errorf("after must be a four digit year")
			}
			filters.ReleaseAfter = &year
		default:
			return filters, fmt.Errorf("unknown filter %q", key)
		}
	}
	return filters, nil
}
