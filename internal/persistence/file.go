package persistence

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
	"github.com/agentstation/promise/pkg/save"
)

// FileStore keeps one snapshot file per pallet in a directory.
type FileStore struct {
	dir    string
	format save.Format
	opts   []pallets.Option
}

// NewFileStore creates the directory if needed and returns a store writing
// snapshots in the given format.
func NewFileStore(dir string, format save.Format, opts ...pallets.Option) (*FileStore, error) {
	if !format.IsValid() {
		return nil, errors.NewValidationError("format", format, "unsupported snapshot format")
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &FileStore{dir: dir, format: format, opts: opts}, nil
}

// Path returns the snapshot file for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+s.format.Extension())
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, key string) (*pallets.Pallet, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	path := s.Path(key)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WrapIO("read", path, err)
	}

	var doc pallets.Document
	if err := save.Unmarshal(s.format, data, &doc); err != nil {
		return nil, false, errors.NewParseError(s.format.String(), path, "decode snapshot", err)
	}
	p, err := pallets.FromDocument(&doc, s.opts...)
	if err != nil {
		return nil, false, errors.WrapResource("load", "snapshot", key, err)
	}
	return p, true, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, key string, p *pallets.Pallet) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := save.Write(p.Document(), save.WithPath(s.Path(key)), save.WithFormat(s.format)); err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}
	return nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("read", s.dir, err)
	}

	ext := s.format.Extension()
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	slices.Sort(keys)
	return keys, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}
