package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasklist/internal/todo"
)

// Codec converts a task list to and from bytes.
type Codec interface {
	// Name is the format name used in configuration ("json", "yaml", "toml").
	Name() string
	// Ext is the file extension, without the dot.
	Ext() string
	Encode(tasks []todo.Task) ([]byte, error)
	Decode(data []byte) ([]todo.Task, error)
}

var codecs = map[string]Codec{
	"json": jsonCodec{},
	"yaml": yamlCodec{},
	"yml":  yamlCodec{},
	"toml": tomlCodec{},
}

// CodecFor returns the codec registered under name.
func CodecFor(name string) (Codec, error) {
	c, ok := codecs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q, must be one of: %s", name, strings.Join(CodecNames(), ", "))
	}
	return c, nil
}

// CodecNames returns the canonical codec names, sorted.
func CodecNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range codecs {
		if !seen[c.Name()] {
			seen[c.Name()] = true
			names = append(names, c.Name())
		}
	}
	sort.Strings(names)
	return names
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Ext() string  { return "json" }

// Encode writes a bare array with 2-space indentation and a trailing newline.
func (jsonCodec) Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Decode(data []byte) ([]todo.Task, error) {
	var tasks []todo.Task
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return tasks, nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }
func (yamlCodec) Ext() string  { return "yaml" }

func (yamlCodec) Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func (yamlCodec) Decode(data []byte) ([]todo.Task, error) {
	var tasks []todo.Task
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tasks); err != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return tasks, nil
}

// tomlDocument wraps the list because TOML has no top-level arrays.
type tomlDocument struct {
	Tasks []todo.Task `toml:"tasks"`
}

type tomlCodec struct{}

func (tomlCodec) Name() string { return "toml" }
func (tomlCodec) Ext() string  { return "toml" }

func (tomlCodec) Encode(tasks []todo.Task) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tomlDocument{Tasks: tasks}); err != nil {
		return nil, fmt.Errorf("marshal toml: %w", err)
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Decode(data []byte) ([]todo.Task, error) {
	var doc tomlDocument
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse toml: unknown keys: %v", undecoded)
	}
	return doc.Tasks, nil
}
