package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/schema"
)

// Store provides read-only access to one backing database.
type Store interface {
	Connect(ctx context.Context) error
	Columns(ctx context.Context, table string) ([]schema.Column, error)
	QueryRows(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
	Close() error
}

// Open creates the Store implementation for a configured store entry.
// The caller owns the Connect/Close lifecycle.
func Open(cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgresql", "postgres":
		return NewPostgresStore(cfg), nil
	case "oracle":
		return NewOracleStore(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
	}
}

// DescribeTables introspects the named tables through an already-connected
// store and returns their schema with columns in ordinal position order.
func DescribeTables(ctx context.Context, st Store, storeName string, tables []string) (*schema.Schema, error) {
	s := &schema.Schema{Store: storeName}
	for _, name := range tables {
		cols, err := st.Columns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("describing table %s: %w", name, err)
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("table %s not found", name)
		}
		s.Tables = append(s.Tables, schema.Table{Name: name, Columns: cols})
	}
	return s, nil
}

// jsonSafeValue converts a driver scan value into a plain JSON-representable
// scalar. Times become RFC 3339 strings, raw bytes become strings, and
// driver-specific numeric types are flattened before they reach the caller.
// NaN and infinite floats become nil; JSON cannot carry them.
func jsonSafeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return x
	case [16]byte:
		return hex.EncodeToString(x[:])
	case *big.Int:
		if x == nil {
			return nil
		}
		return x.String()
	default:
		return v
	}
}
