// Package library serves the media browsing surface: movies and series
// read from the relational store, plus periodic JSON snapshot exports for
// the frontend to consume.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Movie is one movie row as served to the frontend.
type Movie struct {
	ID       int64      `db:"id" json:"id"`
	Title    string     `db:"title" json:"title"`
	Year     *int       `db:"year" json:"year"`
	Summary  *string    `db:"summary" json:"summary"`
	Duration *int64     `db:"duration" json:"duration"`
	Watched  bool       `db:"watched" json:"watched"`
	AddedAt  *time.Time `db:"added_at" json:"addedAt"`
}

// Series is one series row as served to the frontend.
type Series struct {
	ID       int64      `db:"id" json:"id"`
	Title    string     `db:"title" json:"title"`
	Year     *int       `db:"year" json:"year"`
	Summary  *string    `db:"summary" json:"summary"`
	Seasons  int        `db:"seasons" json:"seasons"`
	Episodes int        `db:"episodes" json:"episodes"`
	Watched  bool       `db:"watched" json:"watched"`
	AddedAt  *time.Time `db:"added_at" json:"addedAt"`
}

// ListOptions narrows a listing. Nil fields apply no filter.
type ListOptions struct {
	Year    *int
	Watched *bool
	Limit   int
	Offset  int
}

// Store reads media rows through sqlx struct scanning.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps a database handle for the given driver.
func NewStore(db *sql.DB, driverName string) *Store {
	return &Store{db: sqlx.NewDb(db, driverName)}
}

// ListMovies returns movies matching the options, newest first.
func (s *Store) ListMovies(ctx context.Context, opts ListOptions) ([]Movie, error) {
	query, args, err := listQuery("movies", opts).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build movie listing: %w", err)
	}
	movies := []Movie{}
	if err := s.db.SelectContext(ctx, &movies, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// ListSeries returns series matching the options, newest first.
func (s *Store) ListSeries(ctx context.Context, opts ListOptions) ([]Series, error) {
	query, args, err := listQuery("series", opts).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build series listing: %w", err)
	}
	series := []Series{}
	if err := s.db.SelectContext(ctx, &series, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return series, nil
}

func listQuery(table string, opts ListOptions) sq.SelectBuilder {
	builder := sq.Select("*").From(table).OrderBy("added_at DESC", "id DESC")
	if opts.Year != nil {
		builder = builder.Where(sq.Eq{"year": *opts.Year})
	}
	if opts.Watched != nil {
		builder = builder.Where(sq.Eq{"watched": *opts.Watched})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		builder = builder.Offset(uint64(opts.Offset))
	}
	return builder
}
