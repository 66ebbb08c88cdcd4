package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/dataset/csv"
	"github.com/pbanos/isoforest/dataset/mongodataset"
	"github.com/pbanos/isoforest/dataset/sqldataset"
	"github.com/pbanos/isoforest/dataset/sqldataset/pgadapter"
	"github.com/pbanos/isoforest/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/isoforest/feature"
	mgo "gopkg.in/mgo.v2"
)

const inputHelp = "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the samples (defaults to STDIN, interpreted as CSV)"

func isPostgreSQL(location string) bool {
	return strings.HasPrefix(location, "postgresql://") || strings.HasPrefix(location, "postgres://")
}

func isMongoDB(location string) bool {
	return strings.HasPrefix(location, "mongodb://")
}

func isSqlite3(location string) bool {
	return strings.HasSuffix(location, ".db")
}

/*
readDataset reads the samples at the given location with the given schema,
choosing the backend from the location.
*/
func (rcc *rootCmdConfig) readDataset(ctx context.Context, location string, schema feature.Schema) (*dataset.Dataset, error) {
	switch {
	case isPostgreSQL(location):
		rcc.Logf("Creating PostgreSQL adapter for url %s to read samples...", location)
		adapter, err := pgadapter.New(location)
		if err != nil {
			return nil, err
		}
		defer adapter.Close()
		return sqldataset.Load(ctx, adapter, schema)
	case isMongoDB(location):
		rcc.Logf("Connecting to MongoDB at %s to read samples...", location)
		session, err := mgo.Dial(location)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", location, err)
		}
		defer session.Close()
		c, err := mongodataset.Open(ctx, session, schema)
		if err != nil {
			return nil, err
		}
		return c.Load(ctx)
	case isSqlite3(location):
		rcc.Logf("Creating SQLite3 adapter for file %s to read samples...", location)
		adapter, err := sqlite3adapter.New(location)
		if err != nil {
			return nil, err
		}
		defer adapter.Close()
		return sqldataset.Load(ctx, adapter, schema)
	}
	if location == "" {
		rcc.Logf("Reading samples from STDIN...")
	} else {
		rcc.Logf("Opening %s to read samples...", location)
	}
	return csv.ReadDatasetFromFilePath(location, schema)
}

/*
writeDataset writes the dataset to the given location, choosing the backend
from the location. Databases get the samples appended to their samples table
or collection, while files are overwritten in CSV format. Extra numeric
columns can only be written to CSV.
*/
func (rcc *rootCmdConfig) writeDataset(ctx context.Context, location string, d *dataset.Dataset) (err error) {
	switch {
	case isPostgreSQL(location):
		rcc.Logf("Creating PostgreSQL adapter for url %s to write samples...", location)
		var adapter sqldataset.Adapter
		if adapter, err = pgadapter.New(location); err != nil {
			return err
		}
		defer closeWritten(adapter, location, &err)
		_, err = sqldataset.Store(ctx, adapter, d)
	case isMongoDB(location):
		rcc.Logf("Connecting to MongoDB at %s to write samples...", location)
		session, err := mgo.Dial(location)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", location, err)
		}
		defer session.Close()
		c, err := mongodataset.Open(ctx, session, d.Schema())
		if err != nil {
			return err
		}
		_, err = c.Store(ctx, d)
		return err
	case isSqlite3(location):
		rcc.Logf("Creating SQLite3 adapter for file %s to write samples...", location)
		var adapter sqldataset.Adapter
		if adapter, err = sqlite3adapter.New(location); err != nil {
			return err
		}
		defer closeWritten(adapter, location, &err)
		_, err = sqldataset.Store(ctx, adapter, d)
	default:
		err = rcc.writeCSV(location, d, nil, nil)
	}
	return err
}

/*
writeCSV writes the dataset in CSV format, followed by the given extra
columns, to the file at location or to STDOUT if location is "".
*/
func (rcc *rootCmdConfig) writeCSV(location string, d *dataset.Dataset, names []string, extra [][]float64) (err error) {
	out := os.Stdout
	if location != "" {
		var f *os.File
		if f, err = os.Create(location); err != nil {
			return fmt.Errorf("creating %s: %w", location, err)
		}
		defer closeWritten(f, location, &err)
		out = f
	}
	w, err := csv.NewWriter(out, d.Schema(), names...)
	if err != nil {
		return err
	}
	if _, err = w.Write(d, extra...); err != nil {
		return err
	}
	return w.Flush()
}

/*
closeWritten closes something that was written to, setting *err to the close
error unless it already holds an earlier one.
*/
func closeWritten(c io.Closer, location string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing %s: %w", location, cerr)
	}
}
