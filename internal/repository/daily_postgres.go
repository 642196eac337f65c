package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

// DailyPostgres stores daily records in the daily_challenges table.
type DailyPostgres struct {
	pool *pgxpool.Pool
}

const dailyColumns = `challenge_date, movies, created_at`

// Get fetches the record for a date.
func (r *DailyPostgres) Get(ctx context.Context, date string) (domain.DailyRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_challenges WHERE challenge_date = $1`, dailyColumns)
	rec, err := scanDaily(r.pool.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DailyRecord{}, ErrNotFound
		}
		return domain.DailyRecord{}, err
	}
	return rec, nil
}

// InsertIfAbsent relies on the primary key of challenge_date: a conflicting
// insert returns no row, and the winner's record is read back instead.
func (r *DailyPostgres) InsertIfAbsent(ctx context.Context, rec domain.DailyRecord) (domain.DailyRecord, bool, error) {
	moviesJSON, err := marshalMovies(rec.Movies)
	if err != nil {
		return domain.DailyRecord{}, false, err
	}

	query := fmt.Sprintf(`
        INSERT INTO daily_challenges (challenge_date, movies)
        VALUES ($1, $2)
        ON CONFLICT (challenge_date) DO NOTHING
        RETURNING %s
    `, dailyColumns)

	stored, err := scanDaily(r.pool.QueryRow(ctx, query, rec.Date, moviesJSON))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyRecord{}, false, fmt.Errorf("insert daily challenge: %w", err)
	}

	existing, err := r.Get(ctx, rec.Date)
	if err != nil {
		return domain.DailyRecord{}, false, fmt.Errorf("reload daily challenge after conflict: %w", err)
	}
	return existing, false, nil
}

func scanDaily(row pgx.Row) (domain.DailyRecord, error) {
	var (
		rec        domain.DailyRecord
		moviesJSON []byte
		createdAt  time.Time
	)
	if err := row.Scan(&rec.Date, &moviesJSON, &createdAt); err != nil {
		return domain.DailyRecord{}, err
	}
	rec.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal(moviesJSON, &rec.Movies); err != nil {
		return domain.DailyRecord{}, fmt.Errorf("decode daily movies: %w", err)
	}
	return rec, nil
}

func marshalMovies(movies []domain.MovieSnapshot) ([]byte, error) {
	if movies == nil {
		movies = []domain.MovieSnapshot{}
	}
	return json.Marshal(movies)
}
