package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Store provides read-only windowed aggregates over the host's archive
// table. The host owns the schema and all writes; this side only ever
// queries, so concurrent host inserts are fine (a window observed
// mid-write is acceptable).
type Store struct {
	db *sql.DB
}

// windowColumns is the allowlist of archive columns the aggregate queries
// may touch. Field names arrive from configuration-adjacent code, so they
// never reach the SQL text unchecked.
var windowColumns = map[string]string{
	"windSpeed": "wind_speed",
	"windGust":  "wind_gust",
	"windDir":   "wind_dir",
}

// Connect opens the archive database connection.
func Connect(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The single upload worker is the only reader; keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// WindowAvg returns the arithmetic mean of a field over the window
// (lower, upper]. An empty window returns nil.
func (s *Store) WindowAvg(ctx context.Context, field string, lower, upper int64) (*float64, error) {
	column, ok := windowColumns[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not queryable", field)
	}

	query := fmt.Sprintf(`
		SELECT AVG(%s)
		FROM archive
		WHERE date_time > $1 AND date_time <= $2
	`, column)

	return s.queryScalar(ctx, query, lower, upper)
}

// WindowMaxGust returns the 10-minute maximum gust over (lower, upper]:
// per row the larger of sustained speed and gust, then the maximum across
// the window. GREATEST skips NULLs, so hardware reporting only one of the
// two still contributes. An empty window returns nil.
func (s *Store) WindowMaxGust(ctx context.Context, lower, upper int64) (*float64, error) {
	query := `
		SELECT MAX(GREATEST(wind_speed, wind_gust))
		FROM archive
		WHERE date_time > $1 AND date_time <= $2
	`

	return s.queryScalar(ctx, query, lower, upper)
}

func (s *Store) queryScalar(ctx context.Context, query string, args ...interface{}) (*float64, error) {
	var v sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, fmt.Errorf("scalar query failed: %w", err)
	}
	if !v.Valid {
		return nil, nil
	}
	return &v.Float64, nil
}
