package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
	"github.com/Clark-Hu/movie-budget-game/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// DailyStore persists one immutable DailyRecord per date.
type DailyStore interface {
	// Get returns the record stored for date or ErrNotFound.
	Get(ctx context.Context, date string) (domain.DailyRecord, error)
	// InsertIfAbsent stores rec unless a record for rec.Date already exists.
	// It returns the record that is stored after the call and whether this
	// call created it.
	InsertIfAbsent(ctx context.Context, rec domain.DailyRecord) (domain.DailyRecord, bool, error)
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Daily DailyStore
}

// New constructs a Repository backed by the provided postgres store.
func New(st *store.Postgres) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{Daily: &DailyPostgres{pool: pool}}
}

// NewMongo constructs a Repository backed by a MongoDB database.
func NewMongo(db *mongo.Database) *Repository {
	return &Repository{Daily: &DailyMongo{coll: db.Collection(dailyCollection)}}
}

// NewMemory constructs a Repository kept in process memory.
func NewMemory() *Repository {
	return &Repository{Daily: NewDailyMemory()}
}
