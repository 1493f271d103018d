package watermark

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the YAML table layout:
//
//	folders:
//	  Holiday: "201501311200"
type yamlDocument struct {
	Folders map[string]string `yaml:"folders"`
}

// YAMLStore keeps the table in a YAML file.
type YAMLStore struct {
	path string
}

// NewYAMLStore creates a store for the YAML file at path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Close is a no-op.
func (s *YAMLStore) Close() error {
	return nil
}

// Load reads the table. Entries with malformed timestamps are skipped.
func (s *YAMLStore) Load(ctx context.Context) (Watermarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	table := Watermarks{}

	for folder, raw := range doc.Folders {
		if raw == "" {
			table[folder] = Epoch()
			continue
		}

		t, err := ParseTime(raw)
		if err != nil {
			continue
		}

		table[folder] = t
	}

	return table, nil
}

// Location returns the file path.
func (s *YAMLStore) Location() string {
	return s.path
}

// Save merges table into the file. Folders present only in the file keep
// their stored value.
func (s *YAMLStore) Save(ctx context.Context, table Watermarks) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		doc = &yamlDocument{}
	}

	if doc.Folders == nil {
		doc.Folders = make(map[string]string, len(table))
	}

	for folder, t := range table {
		value, err := FormatTime(t)
		if err != nil {
			return storeError("encode", s.path, fmt.Errorf("folder %q: %w", folder, err))
		}

		doc.Folders[folder] = value
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return storeError("encode", s.path, err)
	}

	return writeFileAtomic(s.path, data)
}

func (s *YAMLStore) read() (*yamlDocument, error) {
	data, err := readStoreFile(s.path)
	if err != nil {
		return nil, err
	}

	doc := &yamlDocument{}

	err = yaml.Unmarshal(data, doc)
	if err != nil {
		return nil, storeError("parse", s.path, err)
	}

	return doc, nil
}
