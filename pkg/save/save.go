package save

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
)

// Marshal encodes v in the given format.
func Marshal(f Format, v any) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
		return data, nil
	}
	return nil, errors.NewValidationError("format", f, "unsupported format")
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(f Format, data []byte, v any) error {
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.WrapParse("json", "", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return errors.WrapParse("yaml", "", err)
		}
		return nil
	}
	return errors.NewValidationError("format", f, "unsupported format")
}

// Write encodes v and sends it to the configured writer, or atomically
// replaces the file at the configured path when no writer is set.
func Write(v any, opts ...Option) error {
	options := Defaults().Apply(opts...)

	data, err := Marshal(options.Format(), v)
	if err != nil {
		return err
	}

	if w := options.Writer(); w != nil {
		if _, err := w.Write(data); err != nil {
			return errors.WrapIO("write", options.Path(), err)
		}
		return nil
	}

	if options.Path() == "" {
		return errors.NewValidationError("path", "", "a path or writer is required")
	}
	return WriteFileAtomic(options.Path(), data)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WrapIO("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.WrapIO("write", path, err)
	}
	return nil
}
