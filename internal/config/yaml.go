package config

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/crunch/internal/field"
)

type yamlDocument struct {
	Normalize yaml.Node   `yaml:"normalize"`
	Parts     []yaml.Node `yaml:"parts"`
}

func parseYAML(data []byte, name string) (*File, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeNoParts, File: name, Message: "empty document"}
		}
		return nil, &LoadError{Code: ErrCodeDecodeFailed, File: name, Message: "decoding YAML", Err: err}
	}

	f := &File{}
	if doc.Normalize.Kind == yaml.ScalarNode {
		form, err := parseNormalize(doc.Normalize.Value, name, doc.Normalize.Line, doc.Normalize.Column)
		if err != nil {
			return nil, err
		}
		f.Normalize = form
	}

	for i := range doc.Parts {
		spec, err := yamlPart(&doc.Parts[i], i+1, name)
		if err != nil {
			return nil, err
		}
		f.Parts = append(f.Parts, spec)
	}
	return f, nil
}

// yamlPart converts one element of parts. Scalars are literal fields (a
// bare 123 is the literal "123"); mappings must be exactly {pattern: expr}.
func yamlPart(n *yaml.Node, part int, name string) (field.Spec, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, malformed(name, part, n.Line, n.Column, "null is not a field")
		}
		return field.Literal{Raw: n.Value}, nil

	case yaml.MappingNode:
		var expr *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Value != "pattern" {
				return nil, malformed(name, part, key.Line, key.Column, "unknown key %q (only \"pattern\" is allowed)", key.Value)
			}
			expr = val
		}
		if expr == nil {
			return nil, malformed(name, part, n.Line, n.Column, "mapping has no pattern key")
		}
		if expr.Kind != yaml.ScalarNode || expr.Tag == "!!null" {
			return nil, malformed(name, part, expr.Line, expr.Column, "pattern must be a string")
		}
		return field.Pattern{Expr: expr.Value}, nil
	}
	return nil, malformed(name, part, n.Line, n.Column, "expected a string or {pattern: ...}")
}
