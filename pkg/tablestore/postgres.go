package tablestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists tables as ordered JSONB rows in a single relation,
// standing in for the remote spreadsheet backend of the original deployment.
// Table replacement runs inside one transaction, so readers get native
// snapshot isolation instead of the clear-then-update window the spreadsheet
// API had.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore prepares the backing relation and returns the store.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `CREATE TABLE IF NOT EXISTS table_rows (
        table_name TEXT NOT NULL,
        seq INT NOT NULL,
        data JSONB NOT NULL,
        PRIMARY KEY (table_name, seq)
)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("prepare table_rows relation: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// ReadTable returns the table rows in their stored order.
func (s *PostgresStore) ReadTable(ctx context.Context, name string) ([]Row, error) {
	var payloads [][]byte
	query := `SELECT data FROM table_rows WHERE table_name = $1 ORDER BY seq`
	if err := s.db.SelectContext(ctx, &payloads, query, name); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	rows := make([]Row, 0, len(payloads))
	for _, payload := range payloads {
		var row Row
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("decode row in table %s: %w", name, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable replaces the table contents in a single transaction.
func (s *PostgresStore) WriteTable(ctx context.Context, name string, _ []string, rows []Row) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace of table %s: %w", name, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = $1`, name); err != nil {
		return fmt.Errorf("clear table %s: %w", name, err)
	}

	insert := `INSERT INTO table_rows (table_name, seq, data) VALUES ($1, $2, $3)`
	for i, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %d for table %s: %w", i, name, err)
		}
		if _, err := tx.ExecContext(ctx, insert, name, i, payload); err != nil {
			return fmt.Errorf("insert row %d into table %s: %w", i, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace of table %s: %w", name, err)
	}
	committed = true
	return nil
}
