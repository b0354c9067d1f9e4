// Package export writes original-miss records as tab-separated files.
//
// Each row is [timestamp, pallet, isbn]. Export files are created
// exclusively: an existing file is never modified and the write fails with
// errors.DuplicateExportError.
package export

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
)

// Row is one exported original miss.
type Row struct {
	Time   time.Time
	Pallet string
	ISBN   string
}

// Record returns the TSV fields of the row.
func (r Row) Record() []string {
	return []string{r.Time.Format(constants.TimeFormatExport), r.Pallet, r.ISBN}
}

// MissesPath returns the per-pallet export file inside dir.
func MissesPath(dir, pallet string) string {
	return filepath.Join(dir, pallet+constants.MissesFileSuffix)
}

// Rows returns one row per original miss of p, stamped with now.
func Rows(p *pallets.Pallet, now time.Time) ([]Row, error) {
	misses, err := p.OriginalMisses()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(misses))
	for i, item := range misses {
		rows[i] = Row{Time: now, Pallet: item.Pallet, ISBN: item.ISBN}
	}
	return rows, nil
}

// WriteOriginalMisses exports the original misses of p to
// <dir>/<pallet>_misses.tsv and returns the path written.
func WriteOriginalMisses(dir string, p *pallets.Pallet, now time.Time) (string, error) {
	rows, err := Rows(p, now)
	if err != nil {
		return "", err
	}
	path := MissesPath(dir, p.Name())
	return path, Write(path, rows)
}

// WriteAll exports the original misses of every pallet into a single file.
// Pallets that have never been reconciled are skipped.
func WriteAll(path string, all []*pallets.Pallet, now time.Time) (int, error) {
	var rows []Row
	for _, p := range all {
		if !p.Queried() {
			continue
		}
		palletRows, err := Rows(p, now)
		if err != nil {
			return 0, err
		}
		rows = append(rows, palletRows...)
	}
	return len(rows), Write(path, rows)
}

// Write creates path exclusively and writes rows to it.
func Write(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.FilePermissions)
	if os.IsExist(err) {
		return errors.NewDuplicateExportError(path)
	}
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	bufw := bufio.NewWriter(f)
	w := csv.NewWriter(bufw)
	w.Comma = '\t'
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			_ = f.Close()
			return errors.WrapIO("write", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := bufw.Flush(); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}
