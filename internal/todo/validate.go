package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaURL = "tasklist://snapshot.schema.json"

// SnapshotSchema is the JSON Schema for a persisted snapshot.
const SnapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "tasklist snapshot",
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["id", "text", "completed"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "text": {"type": "string", "minLength": 1},
      "completed": {"type": "boolean"}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func snapshotSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(SnapshotSchema)); err != nil {
			schemaErr = fmt.Errorf("add snapshot schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(snapshotSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateSnapshot checks raw JSON snapshot bytes against SnapshotSchema.
// The returned error joins one ValidationError per violation.
func ValidateSnapshot(data []byte) error {
	schema, err := snapshotSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Err: fmt.Errorf("parse snapshot: %w", err)}
	}

	if err := schema.Validate(doc); err != nil {
		var errs []error
		appendSchemaErrors(&errs, err)
		return errors.Join(errs...)
	}
	return nil
}

// ValidateTasks performs the checks a decoded snapshot must pass regardless
// of its encoding: positive unique IDs and non-blank text.
func ValidateTasks(tasks []Task) error {
	var errs []error
	seen := make(map[int64]int, len(tasks))
	for i, task := range tasks {
		path := fmt.Sprintf("[%d]", i)
		if task.ID <= 0 {
			errs = append(errs, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("must be positive, got %d", task.ID),
			})
		} else if first, dup := seen[task.ID]; dup {
			errs = append(errs, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %d (first at [%d])", task.ID, first),
			})
		} else {
			seen[task.ID] = i
		}
		if strings.TrimSpace(task.Text) == "" {
			errs = append(errs, &ValidationError{
				Path: path + ".text",
				Err:  fmt.Errorf("missing required field"),
			})
		}
	}
	return errors.Join(errs...)
}

func appendSchemaErrors(errs *[]error, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		*errs = append(*errs, err)
		return
	}
	collectSchemaErrors(errs, ve)
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// jsonPointerToPath converts "/0/text" into "[0].text".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
