package watermark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists a Watermarks table.
type Store interface {
	// Load reads the whole table. Failures wrap ErrStoreIO.
	Load(ctx context.Context) (Watermarks, error)
	// Save writes the whole table. Failures wrap ErrStoreIO.
	Save(ctx context.Context, table Watermarks) error
	// Location names the backing file for messages and logs.
	Location() string
	Close() error
}

// Format selects a store encoding.
type Format string

// Format values. FormatAuto picks one from the file extension.
const (
	FormatAuto   Format = ""
	FormatXML    Format = "xml"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ErrUnknownFormat is returned for an unrecognised format name or extension.
var ErrUnknownFormat = errors.New("unknown watermark store format")

// UnmarshalText lets go-arg parse --store-format.
func (f *Format) UnmarshalText(text []byte) error {
	switch value := Format(strings.ToLower(string(text))); value {
	case FormatAuto, FormatXML, FormatYAML, FormatSQLite:
		*f = value
		return nil
	case "yml":
		*f = FormatYAML
		return nil
	case "db":
		*f = FormatSQLite
		return nil
	default:
		return fmt.Errorf("%w: %q (want xml, yaml or sqlite)", ErrUnknownFormat, string(text))
	}
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return FormatAuto, fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
	}
}

// Open returns the store for path. With FormatAuto the encoding follows the
// file extension.
func Open(ctx context.Context, path string, format Format) (Store, error) {
	if format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}

		format = detected
	}

	switch format {
	case FormatXML:
		return NewXMLStore(path), nil
	case FormatYAML:
		return NewYAMLStore(path), nil
	case FormatSQLite:
		return OpenSQLite(ctx, path)
	case FormatAuto:
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}

func storeError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStoreIO, op, path, err)
}

// readStoreFile reads a file-backed store. A missing file is an error.
func readStoreFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, storeError("read", path, err)
	}

	return data, nil
}

// writeFileAtomic replaces path with data through a temp file and rename,
// so a failed save never leaves a half-written table behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return storeError("save", path, err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmpName, 0o644) //nolint:gosec,mnd // the table is not secret
	}

	if err == nil {
		err = os.Rename(tmpName, path)
	}

	if err != nil {
		_ = os.Remove(tmpName)
		return storeError("save", path, err)
	}

	return nil
}
