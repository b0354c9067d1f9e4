package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/pallets"
)

var fixedTime = time.Date(2020, 9, 21, 12, 30, 15, 123456789, time.UTC)

func fixedClock() time.Time { return fixedTime }

func samplePallet(t *testing.T, name string) *pallets.Pallet {
	t.Helper()
	p := pallets.New(name, "https://archive.org/metadata/"+name, []string{
		"9781405892469", "9782723496117", "9782880462703", "9783522182676", "9788189999520",
	}, pallets.WithClock(fixedClock))

	present := map[string]bool{"9781405892469": true, "9782880462703": true, "9788189999520": true}
	for _, item := range p.Items() {
		item.Observe(present[item.ISBN])
	}
	p.MarkQueried()

	item, err := p.Item("9783522182676")
	require.NoError(t, err)
	item.MarkAttempted()
	p.MarkRegistrationRun()
	return p
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	stores := map[string]Store{}
	for _, backend := range []Backend{BackendYAML, BackendJSON, BackendSQLite} {
		s, err := Open(Config{
			Dir:     filepath.Join(t.TempDir(), string(backend)),
			Backend: backend,
			Options: []pallets.Option{pallets.WithClock(fixedClock)},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		stores[string(backend)] = s
	}
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := samplePallet(t, "super_pallet_2020-09-21")

			require.NoError(t, store.Save(ctx, want.Name(), want))

			got, ok, err := store.Load(ctx, want.Name())
			require.NoError(t, err)
			require.True(t, ok)

			wantDoc, gotDoc := want.Document(), got.Document()
			assert.True(t, wantDoc.Created.Equal(gotDoc.Created))
			assert.True(t, wantDoc.Updated.Equal(gotDoc.Updated))
			wantDoc.Created, wantDoc.Updated = time.Time{}, time.Time{}
			gotDoc.Created, gotDoc.Updated = time.Time{}, time.Time{}
			assert.Equal(t, wantDoc, gotDoc)
			assert.Equal(t, want.Items(), got.Items())
		})
	}
}

func TestStoreFreshPallet(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := pallets.New("fresh", "", []string{"9781405892469"}, pallets.WithClock(fixedClock))
			require.NoError(t, store.Save(ctx, "fresh", p))

			got, ok, err := store.Load(ctx, "fresh")
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, got.Queried())
			_, err = got.HitCount()
			assert.True(t, errors.IsPrecondition(err))
		})
	}
}

func TestStoreMissing(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			p, ok, err := store.Load(context.Background(), "nope")
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, p)
		})
	}
}

func TestStoreOverwriteAndList(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, "b", samplePallet(t, "b")))
			require.NoError(t, store.Save(ctx, "a", samplePallet(t, "a")))

			smaller := pallets.New("a", "", []string{"9781405892469"})
			require.NoError(t, store.Save(ctx, "a", smaller))

			got, ok, err := store.Load(ctx, "a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 1, got.Len())

			keys, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../x", "a/b", ".hidden"} {
				_, _, err := store.Load(context.Background(), key)
				assert.True(t, errors.IsValidationError(err), "key %q", key)
			}
		})
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(Config{Dir: dir, Backend: BackendJSON})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	_, ok, err := store.Load(context.Background(), "broken")
	assert.False(t, ok)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestFileStoreInvalidSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(Config{Dir: dir, Backend: BackendYAML})
	require.NoError(t, err)

	invalid := "version: 1\nname: bad\nqueried: false\nitems:\n- isbn: \"9781405892469\"\n  presence: present\n  origin: present\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(invalid), 0o644))

	_, ok, err := store.Load(context.Background(), "bad")
	assert.False(t, ok)
	assert.True(t, errors.IsValidationError(err))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Config{Dir: t.TempDir(), Backend: "xml"})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".promise.lock"), lock.Path())

	_, err = AcquireLock(dir)
	assert.ErrorIs(t, err, errors.ErrLocked)

	require.NoError(t, lock.Release())

	again, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestSQLitePragmasOnEveryConnection(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "pallets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	first, err := store.db.Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := store.db.Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, conn := range []*sql.Conn{first, second} {
		var foreignKeys, busyTimeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, 1, foreignKeys)
		assert.Equal(t, 5000, busyTimeout)
	}
}
