/*
Package mongodataset loads datasets from a MongoDB collection of samples and
stores them back.

Every sample is a document with one field per feature holding its value: a
number for numeric features and the level name for categorical ones. Missing
values are left out of the document.
*/
package mongodataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	samplesCollectionName = "samples"
	// maxInsertionsPerCommand bounds the documents sent on each insert
	maxInsertionsPerCommand = 1000
)

/*
Collection gives access to the samples collection of the default database of
a MongoDB session.
*/
type Collection struct {
	session *mgo.Session
	schema  feature.Schema
}

/*
Open takes a MongoDB database session and a schema and returns a Collection
that works on the default database for that session, or an error if the
feature names cannot be used as document fields or the collection cannot be
indexed.
*/
func Open(ctx context.Context, session *mgo.Session, schema feature.Schema) (*Collection, error) {
	if err := validateNames(schema); err != nil {
		return nil, err
	}
	c := &Collection{session, schema}
	if err := c.ensureIndexes(); err != nil {
		return nil, fmt.Errorf("indexing samples collection: %w", err)
	}
	return c, nil
}

/*
Count returns the number of samples in the collection.
*/
func (c *Collection) Count(ctx context.Context) (int, error) {
	return c.samplesCollection().Count()
}

/*
Load reads every sample in the collection, in insertion order, and returns
them as a dataset or an error. Values not valid for their feature produce an
InvalidInput error.
*/
func (c *Collection) Load(ctx context.Context) (*dataset.Dataset, error) {
	var rows [][]interface{}
	iter := c.samplesCollection().Find(nil).Sort("_id").Iter()
	var doc bson.M
	for iter.Next(&doc) {
		if err := ctx.Err(); err != nil {
			iter.Close()
			return nil, err
		}
		row, err := c.row(doc)
		if err != nil {
			iter.Close()
			return nil, failure.Wrap(failure.InvalidInput, err, "reading sample %d", len(rows))
		}
		rows = append(rows, row)
		doc = nil
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	return dataset.FromRows(c.schema, rows)
}

/*
Store inserts every row of the dataset into the collection and returns the
number of samples inserted and an error if not all could be.
*/
func (c *Collection) Store(ctx context.Context, d *dataset.Dataset) (int, error) {
	if !d.Schema().Equal(c.schema) {
		return 0, failure.Errorf(failure.InvalidInput, "storing samples: dataset has schema [%s], expected [%s]", d.Schema().Describe(), c.schema.Describe())
	}
	var n int
	for start := 0; start < d.Len(); start += maxInsertionsPerCommand {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		end := start + maxInsertionsPerCommand
		if end > d.Len() {
			end = d.Len()
		}
		docs := make([]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			doc := bson.M{"_id": bson.NewObjectId()}
			for j, f := range c.schema {
				if v := d.Value(i, j); v != nil {
					doc[f.Name()] = v
				}
			}
			docs = append(docs, doc)
		}
		if err := c.samplesCollection().Insert(docs...); err != nil {
			return n, fmt.Errorf("storing samples %d to %d: %w", start, end-1, err)
		}
		n = end
	}
	return n, nil
}

func (c *Collection) row(doc bson.M) ([]interface{}, error) {
	row := make([]interface{}, len(c.schema))
	for j, f := range c.schema {
		v, ok := doc[f.Name()]
		if !ok || v == nil {
			continue
		}
		if f.Kind() == feature.Categorical {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("value %v of type %T for categorical feature %s", v, v, f.Name())
			}
			row[j] = s
			continue
		}
		switch x := v.(type) {
		case float64:
			row[j] = x
		case int:
			row[j] = float64(x)
		case int64:
			row[j] = float64(x)
		default:
			return nil, fmt.Errorf("value %v of type %T for numeric feature %s", v, v, f.Name())
		}
	}
	return row, nil
}

func validateNames(schema feature.Schema) error {
	for _, f := range schema {
		fName := f.Name()
		if fName == "_id" {
			return failure.Errorf(failure.InvalidInput, "invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(fName, ".$") {
			return failure.Errorf(failure.InvalidInput, "invalid feature name %q: contains reserved characters %q or %q", fName, ".", "$")
		}
	}
	return nil
}

func (c *Collection) ensureIndexes() error {
	for _, f := range c.schema {
		index := mgo.Index{
			Key:        []string{f.Name()},
			Background: true,
			Sparse:     true,
		}
		err := c.samplesCollection().EnsureIndex(index)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) samplesCollection() *mgo.Collection {
	return c.session.DB("").C(samplesCollectionName)
}
