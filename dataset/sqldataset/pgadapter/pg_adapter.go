/*
Package pgadapter provides an implementation of the
Adapter interface in the sqldataset package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pbanos/isoforest/dataset/sqldataset"
)

type adapter struct {
	db *sql.DB
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqldataset.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, numericColumns, categoricalColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range numericColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`%s DOUBLE PRECISION NULL, `, pq.QuoteIdentifier(c)))
	}
	for _, c := range categoricalColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`%s TEXT NULL, `, pq.QuoteIdentifier(c)))
	}
	createStmtBuf.WriteString(`"id" SERIAL PRIMARY KEY)`)
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %w", err)
	}
	return nil
}

/*
AddSamples loads the rows with a COPY command in a single transaction, so
either all rows are added or none.
*/
func (a *adapter) AddSamples(ctx context.Context, columns []string, rows [][]interface{}) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no features to store")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("samples", columns...))
	if err != nil {
		return 0, fmt.Errorf("preparing copy command: %w", err)
	}
	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("copying sample %d: %w", i, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("flushing copied samples: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return 0, fmt.Errorf("closing copy command: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %d samples: %w", len(rows), err)
	}
	return len(rows), nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, columns []string, lambda func(int, []interface{}) (bool, error)) error {
	quoted := make([]string, len(columns))
	for j, c := range columns {
		quoted[j] = pq.QuoteIdentifier(c)
	}
	query := fmt.Sprintf(`SELECT %s FROM samples ORDER BY "id"`, strings.Join(quoted, ", "))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for j := range values {
			pointers[j] = &values[j]
		}
		if err = rows.Scan(pointers...); err != nil {
			return err
		}
		ok, err := lambda(i, values)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) Close() error {
	return a.db.Close()
}
