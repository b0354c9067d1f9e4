package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore keeps every pallet in one SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts []pallets.Option
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string, opts ...pallets.Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, path: path, opts: opts}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// sqliteDSN applies the pragmas on every pooled connection, since
// foreign_keys and busy_timeout are per-connection settings.
func sqliteDSN(path string) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
	}
	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_pragma="+p)
	}
	return "file:" + path + "?" + strings.Join(q, "&")
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string) (*pallets.Pallet, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	doc := pallets.Document{Name: key}
	var created, updated string
	var queried, registrationRun int
	err := s.db.QueryRowContext(ctx,
		`SELECT url, version, queried, registration_run, created_at, updated_at FROM pallets WHERE name = ?`,
		key,
	).Scan(&doc.URL, &doc.Version, &queried, &registrationRun, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WrapResource("load", "snapshot", key, err)
	}
	doc.Queried = queried != 0
	doc.RegistrationRun = registrationRun != 0
	if doc.Created, err = parseTime(created); err != nil {
		return nil, false, errors.NewParseError("sqlite", s.path, "created_at of "+key, err)
	}
	if doc.Updated, err = parseTime(updated); err != nil {
		return nil, false, errors.NewParseError("sqlite", s.path, "updated_at of "+key, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT isbn, presence, registration_attempted, origin FROM items WHERE pallet = ? ORDER BY isbn`,
		key,
	)
	if err != nil {
		return nil, false, errors.WrapResource("load", "snapshot", key, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		rec := pallets.ItemRecord{Pallet: key}
		var attempted int
		if err := rows.Scan(&rec.ISBN, &rec.Presence, &attempted, &rec.Origin); err != nil {
			return nil, false, errors.WrapResource("load", "snapshot", key, err)
		}
		rec.RegistrationAttempted = attempted != 0
		doc.Items = append(doc.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, errors.WrapResource("load", "snapshot", key, err)
	}

	p, err := pallets.FromDocument(&doc, s.opts...)
	if err != nil {
		return nil, false, errors.WrapResource("load", "snapshot", key, err)
	}
	return p, true, nil
}

// Save implements Store. The pallet row and all of its items are replaced
// in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, key string, p *pallets.Pallet) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	doc := p.Document()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE pallet = ?`, key); err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pallets (name, url, version, queried, registration_run, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET
            url = excluded.url,
            version = excluded.version,
            queried = excluded.queried,
            registration_run = excluded.registration_run,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at`,
		key, doc.URL, doc.Version, boolInt(doc.Queried), boolInt(doc.RegistrationRun),
		formatTime(doc.Created), formatTime(doc.Updated),
	); err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (pallet, isbn, presence, registration_attempted, origin) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range doc.Items {
		if _, err := stmt.ExecContext(ctx, key, rec.ISBN, rec.Presence, boolInt(rec.RegistrationAttempted), rec.Origin); err != nil {
			return errors.WrapResource("save", "snapshot", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapResource("save", "snapshot", key, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pallets ORDER BY name`)
	if err != nil {
		return nil, errors.WrapResource("list", "snapshot", "", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WrapResource("list", "snapshot", "", err)
		}
		keys = append(keys, name)
	}
	return keys, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
