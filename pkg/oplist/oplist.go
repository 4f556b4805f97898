// Package oplist loads edit operation lists from TOML, JSON or YAML files.
//
// Each operation is either a table/object:
//
//	[[operations]]
//	start = 7
//	end = 22
//	kind = "linear"
//	value = 0.05
//
// or a compact tuple [start, end, kind, value]:
//
//	{"operations": [[7, 7, "set", 1.5], [7, 22, "linear", 0.05]]}
package oplist

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/qnkhuat/castedit/pkg/editor"
)

//go:embed schema.json
var schemaText string

var schema = jsonschema.MustCompileString("castedit-operations.schema.json", schemaText)

type Format string

const (
	FormatAuto Format = ""
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Load reads and validates the operation list at path.
func Load(path string) ([]editor.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operations: %w", err)
	}
	ops, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// Parse decodes an operation list document in the given format.
func Parse(data []byte, format Format) ([]editor.Operation, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	// Round trip through JSON so every format validates the same way.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize operations: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.UseNumber()
	var instance interface{}
	if err := dec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("normalize operations: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid operations: %w", err)
	}

	var raw struct {
		Operations []json.RawMessage `json:"operations"`
	}
	if err := json.Unmarshal(normalized, &raw); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}

	ops := make([]editor.Operation, 0, len(raw.Operations))
	for i, item := range raw.Operations {
		op, err := decodeOperation(item)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decode(data []byte, format Format) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		for _, f := range []Format{FormatTOML, FormatJSON, FormatYAML} {
			if d, err := decode(data, f); err == nil {
				return d, nil
			}
		}
		return nil, fmt.Errorf("unable to parse operations (tried TOML, JSON, YAML)")
	}
	return doc, nil
}

func decodeOperation(item json.RawMessage) (editor.Operation, error) {
	var op editor.Operation
	if len(item) == 0 || item[0] != '[' {
		err := json.Unmarshal(item, &op)
		return op, err
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(item, &tuple); err != nil {
		return op, err
	}
	if len(tuple) != 4 {
		return op, fmt.Errorf("expected [start, end, kind, value], got %d items", len(tuple))
	}
	for i, dst := range []interface{}{&op.StartLine, &op.EndLine, &op.Kind, &op.Value} {
		if err := json.Unmarshal(tuple[i], dst); err != nil {
			return op, err
		}
	}
	return op, nil
}

// Encode writes ops as a TOML operation list.
func Encode(ops []editor.Operation) ([]byte, error) {
	var buf bytes.Buffer
	doc := struct {
		Operations []editor.Operation `toml:"operations"`
	}{ops}
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
