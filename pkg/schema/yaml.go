// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is a schema definition loaded from a file. Fields keep the order
// they are declared in.
type Definition struct {
	Name    string
	Fields  []Field
	Options []Option
}

type fileDefinition struct {
	Name    string       `yaml:"name"`
	Options *fileOptions `yaml:"options"`
	Fields  yaml.Node    `yaml:"fields"`
}

type fileOptions struct {
	DataStructure  *string  `yaml:"dataStructure"`
	Prefix         *string  `yaml:"prefix"`
	IndexName      *string  `yaml:"indexName"`
	IndexHashName  *string  `yaml:"indexHashName"`
	IndexedDefault *bool    `yaml:"indexedDefault"`
	UseStopWords   *string  `yaml:"useStopWords"`
	StopWords      []string `yaml:"stopWords"`
}

type fileField struct {
	Type     string    `yaml:"type"`
	Indexed  *bool     `yaml:"indexed"`
	Sortable bool      `yaml:"sortable"`
	Fields   yaml.Node `yaml:"fields"`
}

var errEmptyDefinition = errors.New("schema definition is empty")

// ParseYAML parses a schema definition file. A field can be declared with its
// full definition or with the type name only:
//
//	name: Movie
//	options:
//	  dataStructure: HASH
//	fields:
//	  title: text
//	  year: {type: number, sortable: true}
//	  cast:
//	    type: object
//	    fields:
//	      lead: string
//
// When no prefix option is given, the definition name is used as prefix.
func ParseYAML(data []byte) (*Definition, error) {
	var fd fileDefinition
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("parsing schema definition: %w", err)
	}
	if fd.Name == "" && fd.Fields.Kind == 0 {
		return nil, errEmptyDefinition
	}

	fields, err := parseYAMLFields(&fd.Fields, "")
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Name:   fd.Name,
		Fields: fields,
	}
	def.Options = fd.Options.toOptions()
	if fd.Name != "" && (fd.Options == nil || fd.Options.Prefix == nil) {
		def.Options = append(def.Options, WithPrefix(fd.Name))
	}
	return def, nil
}

func parseYAMLFields(node *yaml.Node, parent string) ([]Field, error) {
	if node.Kind == 0 {
		return []Field{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fieldErrorf(parent, "fields must be a mapping of field name to field definition (line %d)", node.Line)
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		valueNode := node.Content[i+1]
		path := parent + name

		// shorthand: `title: text`
		if valueNode.Kind == yaml.ScalarNode {
			fields = append(fields, Field{Name: name, Type: FieldType(valueNode.Value)})
			continue
		}

		var ff fileField
		if err := valueNode.Decode(&ff); err != nil {
			return nil, fmt.Errorf("parsing field %s: %w", path, err)
		}
		nested, err := parseYAMLFields(&ff.Fields, path+".")
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{
			Name:     name,
			Type:     FieldType(ff.Type),
			Indexed:  ff.Indexed,
			Sortable: ff.Sortable,
			Fields:   nested,
		})
	}
	return fields, nil
}

func (o *fileOptions) toOptions() []Option {
	if o == nil {
		return nil
	}
	opts := []Option{}
	if o.DataStructure != nil {
		opts = append(opts, WithDataStructure(DataStructure(*o.DataStructure)))
	}
	if o.Prefix != nil {
		opts = append(opts, WithPrefix(*o.Prefix))
	}
	if o.IndexName != nil {
		opts = append(opts, WithIndexName(*o.IndexName))
	}
	if o.IndexHashName != nil {
		opts = append(opts, WithIndexHashName(*o.IndexHashName))
	}
	if o.IndexedDefault != nil {
		opts = append(opts, WithIndexedDefault(*o.IndexedDefault))
	}
	if o.UseStopWords != nil {
		opts = append(opts, WithUseStopWords(StopWordsMode(*o.UseStopWords)))
	}
	if o.StopWords != nil {
		opts = append(opts, WithStopWords(o.StopWords...))
	}
	return opts
}
