package store

import (
	"context"
	"fmt"

	"github.com/milldesk/milldesk/internal/schema"
)

// MockStore is a test double for the Store interface.
type MockStore struct {
	ConnectErr error

	ColumnsByTable map[string][]schema.Column
	ColumnsErr     error
	QueryResult    []map[string]any
	QueryErr       error

	Connected   bool
	Closed      bool
	QueriesRun  []string
	QueryParams [][]any
}

func (m *MockStore) Connect(_ context.Context) error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockStore) Columns(_ context.Context, table string) ([]schema.Column, error) {
	if m.ColumnsErr != nil {
		return nil, m.ColumnsErr
	}
	if m.ColumnsByTable != nil {
		if cols, ok := m.ColumnsByTable[table]; ok {
			return cols, nil
		}
	}
	return nil, fmt.Errorf("no columns configured for table %s", table)
}

func (m *MockStore) QueryRows(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	m.QueriesRun = append(m.QueriesRun, sql)
	m.QueryParams = append(m.QueryParams, args)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.QueryResult, nil
}

func (m *MockStore) Close() error {
	m.Closed = true
	return nil
}
