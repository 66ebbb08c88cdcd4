package sqlite3adapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbanos/isoforest/dataset/sqldataset"
)

/*
MaxSampleInsertionsPerStatement is the maximum number
of samples that are allowed to be added with a single
insert command with the AddSamples method of the adapter.
Trying to add more will result in making more insertion commands
*/
const MaxSampleInsertionsPerStatement = 50

type adapter struct {
	db *sql.DB
}

/*
New takes a path to an SQLite3 database file and returns an Adapter that works
on the file's database or an error if it fails to open as an sqlite3 database.
*/
func New(path string) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
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
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" REAL NULL, `, c))
	}
	for _, c := range categoricalColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" TEXT NULL, `, c))
	}
	createStmtBuf.WriteString(`"id" INTEGER PRIMARY KEY AUTOINCREMENT)`)
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %w", err)
	}
	return nil
}

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
	for chunkStart := 0; chunkStart < len(rows); chunkStart += MaxSampleInsertionsPerStatement {
		chunkEnd := chunkStart + MaxSampleInsertionsPerStatement
		if chunkEnd > len(rows) {
			chunkEnd = len(rows)
		}
		values := make([]interface{}, 0, (chunkEnd-chunkStart)*len(columns))
		for _, row := range rows[chunkStart:chunkEnd] {
			values = append(values, row...)
		}
		_, err = tx.ExecContext(ctx, insertStatement(columns, chunkEnd-chunkStart), values...)
		if err != nil {
			return 0, fmt.Errorf("inserting samples %d to %d: %w", chunkStart, chunkEnd-1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %d samples: %w", len(rows), err)
	}
	return len(rows), nil
}

func insertStatement(columns []string, rows int) string {
	var insertStmtBuffer bytes.Buffer
	insertStmtBuffer.WriteString(`INSERT INTO samples ("`)
	insertStmtBuffer.WriteString(strings.Join(columns, `", "`))
	insertStmtBuffer.WriteString(`") VALUES `)
	placeholders := "(?" + strings.Repeat(", ?", len(columns)-1) + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			insertStmtBuffer.WriteString(", ")
		}
		insertStmtBuffer.WriteString(placeholders)
	}
	return insertStmtBuffer.String()
}

func (a *adapter) IterateOnSamples(ctx context.Context, columns []string, lambda func(int, []interface{}) (bool, error)) error {
	query := fmt.Sprintf(`SELECT "%s" FROM samples ORDER BY "id"`, strings.Join(columns, `", "`))
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
