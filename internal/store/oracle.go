package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	// Oracle driver
	_ "github.com/sijms/go-ora/v2"

	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/schema"
)

// OracleStore implements Store for Oracle using go-ora.
type OracleStore struct {
	cfg config.StoreConfig
	db  *sql.DB
}

// NewOracleStore creates a new Oracle store from a config entry.
func NewOracleStore(cfg config.StoreConfig) *OracleStore {
	if cfg.Schema == "" {
		cfg.Schema = strings.ToUpper(cfg.Username)
	}
	return &OracleStore{cfg: cfg}
}

func (s *OracleStore) Connect(ctx context.Context) error {
	connStr := fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		s.cfg.Username, s.cfg.Password, s.cfg.Host, s.cfg.Port, s.cfg.Database)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return fmt.Errorf("opening Oracle connection: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.MaxConnections)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging Oracle: %w", err)
	}
	s.db = db
	return nil
}

func (s *OracleStore) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	query := `
		SELECT COLUMN_NAME, DATA_TYPE
		FROM ALL_TAB_COLUMNS
		WHERE OWNER = :1 AND UPPER(TABLE_NAME) = UPPER(:2)
		ORDER BY COLUMN_ID`

	rows, err := s.db.QueryContext(ctx, query, strings.ToUpper(s.cfg.Schema), table)
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

// dollarPlaceholder matches PostgreSQL-style positional placeholders. The
// synthesizer always emits $N; Oracle wants :N.
var dollarPlaceholder = regexp.MustCompile(`\$(\d+)`)

func (s *OracleStore) QueryRows(ctx context.Context, sqlStr string, args ...any) ([]map[string]any, error) {
	sqlStr = dollarPlaceholder.ReplaceAllString(sqlStr, ":$1")

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = jsonSafeValue(vals[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

func (s *OracleStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
