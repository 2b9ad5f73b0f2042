package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
)

// ReadSnapshot decodes and validates a snapshot.
//
// Connections that reference missing nodes are kept; the graph builder
// drops them. ReadSnapshot does not close r.
func ReadSnapshot(r io.Reader, format Format) (factory.Snapshot, error) {
	var snap factory.Snapshot
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&snap)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&snap)
	default:
		return snap, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
	}
	if err != nil {
		if errors.GetCode(err) != "" {
			return snap, err
		}
		return snap, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s snapshot", format)
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}

// ImportSnapshot reads the snapshot file at path.
func ImportSnapshot(path string) (factory.Snapshot, error) {
	if err := errors.ValidatePath(path); err != nil {
		return factory.Snapshot{}, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return factory.Snapshot{}, err
	}

	f, err := os.Open(path)
	if stderrors.Is(err, os.ErrNotExist) {
		return factory.Snapshot{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
	}
	if err != nil {
		return factory.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	snap, err := ReadSnapshot(f, format)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// WriteSnapshot encodes snap to w.
func WriteSnapshot(w io.Writer, snap factory.Snapshot, format Format) error {
	return encode(w, snap, format)
}

// ExportSnapshot writes snap to path in the format given by its extension.
func ExportSnapshot(path string, snap factory.Snapshot) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSnapshot(f, snap, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CanonicalJSON returns the compact JSON encoding used for cache keys.
func CanonicalJSON(snap factory.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
}
