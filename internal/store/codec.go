package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/tada/internal/model"
)

// SlotKey is the persistence slot holding the serialized collection.
const SlotKey = "@todo_tasks"

const schemaURL = "tasks.schema.json"

// The slot value is a bare JSON array of task objects.
const tasksSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "completed", "created_at"],
    "properties": {
      "id":         {"type": "string", "minLength": 1},
      "title":      {"type": "string", "pattern": "\\S"},
      "completed":  {"type": "boolean"},
      "created_at": {"type": "string", "format": "date-time"}
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(tasksSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// Encode serializes the collection into the slot format.
func Encode(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// Decode parses and validates a slot value.
func Decode(b []byte) ([]model.Task, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("schema: %s", schemaMessage(err))
	}

	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		// the schema's \S is ASCII-only; titles follow the same rule as Add
		if _, err := model.NormalizeTitle(t.Title); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		if j, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q at %d and %d", t.ID, j, i)
		}
		seen[t.ID] = i
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// schemaMessage flattens a validation error to its first leaf cause.
func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
