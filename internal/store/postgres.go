package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/schema"
)

// PostgresStore implements Store for PostgreSQL using pgx.
type PostgresStore struct {
	cfg  config.StoreConfig
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store from a config entry.
func NewPostgresStore(cfg config.StoreConfig) *PostgresStore {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return &PostgresStore{cfg: cfg}
}

func (s *PostgresStore) Connect(ctx context.Context) error {
	ssl := "disable"
	if s.cfg.SSL {
		ssl = "require"
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.cfg.Username, s.cfg.Password, s.cfg.Host, s.cfg.Port, s.cfg.Database, ssl)

	pcfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	pcfg.MaxConns = int32(s.cfg.MaxConnections)

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	s.pool = pool
	return nil
}

func (s *PostgresStore) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND lower(table_name) = lower($2)
		ORDER BY ordinal_position`

	rows, err := s.pool.Query(ctx, query, s.cfg.Schema, table)
	if err != nil {
		return nil, fmt.Errorf("introspecting columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var c schema.Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *PostgresStore) QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	var results []map[string]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(map[string]any, len(descs))
		for i, d := range descs {
			row[d.Name] = pgJSONSafe(vals[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// pgJSONSafe flattens pgx-specific value types before the generic conversion.
func pgJSONSafe(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err == nil && f.Valid {
			return jsonSafeValue(f.Float64)
		}
		return nil
	default:
		return jsonSafeValue(v)
	}
}
