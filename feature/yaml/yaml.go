/*
Package yaml provides methods to parse feature.Schema definitions,
also known as metadata, from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"

	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
ReadSchema takes a slice of bytes with a schema definition in YAML and
returns the schema parsed from it or an error.
The YAML is expected to be an object containing a features property. The value
for this should be an object with a property for each feature with its name and
either a string value of 'numeric' (or 'continuous') for numeric features or a
list of levels for categorical features. Features keep the order in which they
appear in the document. Names YAML reads as something other than a string,
such as y, no or 1, must be quoted.
*/
func ReadSchema(md []byte) (feature.Schema, error) {
	metadata := struct {
		Features yaml.MapSlice
	}{}
	err := yaml.Unmarshal(md, &metadata)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "parsing yml features")
	}
	if metadata.Features == nil {
		return nil, failure.Errorf(failure.InvalidInput, "metadata has no feature information")
	}
	schema := feature.Schema{}
	for _, item := range metadata.Features {
		fn, ok := item.Key.(string)
		if !ok {
			return nil, failure.Errorf(failure.InvalidInput, "feature name %v is read as a %T, quote it to use it as a name", item.Key, item.Key)
		}
		switch values := item.Value.(type) {
		case string:
			if values != "numeric" && values != "continuous" {
				return nil, failure.Errorf(failure.InvalidInput, "feature %s: unknown feature type %q", fn, values)
			}
			schema = append(schema, feature.NewNumericFeature(fn))
		case []interface{}:
			levels := make([]string, 0, len(values))
			for _, v := range values {
				levels = append(levels, fmt.Sprintf("%v", v))
			}
			schema = append(schema, feature.NewCategoricalFeature(fn, levels))
		default:
			return nil, failure.Errorf(failure.InvalidInput, "feature %s: invalid feature declaration of type %T", fn, item.Value)
		}
	}
	if err = schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

/*
ReadSchemaFromFile takes a filepath string, reads its contents and uses
ReadSchema to parse it and return the schema or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadSchemaFromFile(filepath string) (feature.Schema, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading features yml file %s: %w", filepath, err)
	}
	schema, err := ReadSchema(md)
	if err != nil {
		err = fmt.Errorf("parsing features yml file %s: %w", filepath, err)
	}
	return schema, err
}

/*
WriteSchema returns the YAML metadata document describing the given schema,
in the format ReadSchema parses.
*/
func WriteSchema(s feature.Schema) ([]byte, error) {
	features := make(yaml.MapSlice, 0, len(s))
	for _, f := range s {
		var value interface{} = "numeric"
		if f.Kind() == feature.Categorical {
			value = feature.Levels(f)
		}
		features = append(features, yaml.MapItem{Key: f.Name(), Value: value})
	}
	return yaml.Marshal(struct {
		Features yaml.MapSlice `yaml:"features"`
	}{features})
}
