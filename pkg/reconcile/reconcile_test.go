package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/isbn"
	"github.com/agentstation/promise/pkg/pallets"
)

// fakeCatalog answers queries from an in-memory set and records each batch.
type fakeCatalog struct {
	held    isbn.Set
	calls   [][]string
	failOn  int
	failErr error
}

func newFakeCatalog(held ...string) *fakeCatalog {
	return &fakeCatalog{held: isbn.NewSet(held...)}
}

func (f *fakeCatalog) Query(_ context.Context, isbns []string) (isbn.Set, error) {
	f.calls = append(f.calls, isbns)
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, f.failErr
	}
	out := isbn.NewSet()
	for _, id := range isbns {
		if f.held.Has(id) {
			out.Add(id)
		}
	}
	return out, nil
}

const (
	isbnA = "9781405892469"
	isbnB = "9782723496117"
	isbnC = "9783522182676"
)

func counts(t *testing.T, p *pallets.Pallet) (hits, misses, original int) {
	t.Helper()
	s, err := p.Summary()
	require.NoError(t, err)
	return s.Hits, s.Misses, s.OriginalMisses
}

func TestReconcileScenario(t *testing.T) {
	catalog := newFakeCatalog(isbnA)
	engine, err := New(catalog)
	require.NoError(t, err)

	p := pallets.New("p", "", []string{isbnA, isbnB, isbnC})

	res, err := engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	hits, misses, original := counts(t, p)
	assert.Equal(t, []int{1, 2, 2}, []int{hits, misses, original})
	assert.Equal(t, []string{isbnA}, res.Hits)
	assert.Equal(t, []string{isbnB, isbnC}, res.Misses)
	assert.Empty(t, res.Recovered)
	assert.Equal(t, 3, res.Total())

	// B gets imported between runs.
	catalog.held.Add(isbnB)

	res, err = engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	hits, misses, original = counts(t, p)
	assert.Equal(t, []int{2, 1, 2}, []int{hits, misses, original})
	assert.Equal(t, []string{isbnB}, res.Recovered)
	assert.Equal(t, []string{isbnB, isbnC}, res.OriginalMisses)

	item, err := p.Item(isbnB)
	require.NoError(t, err)
	assert.Equal(t, pallets.Present, item.Presence)
	assert.Equal(t, pallets.OriginMissing, item.Origin)
}

func TestReconcileIsIdempotent(t *testing.T) {
	engine, err := New(newFakeCatalog(isbnA, isbnC))
	require.NoError(t, err)

	p := pallets.New("p", "", []string{isbnA, isbnB, isbnC})
	_, err = engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	first := p.Document()

	_, err = engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	second := p.Document()

	assert.Equal(t, first.Items, second.Items)
}

func TestReconcileBatching(t *testing.T) {
	ids := []string{
		"9780823062010", "9780804429573", isbnA, isbnB, isbnC,
		"9782880462703", "9788189999520",
	}
	catalog := newFakeCatalog(ids...)

	var progress [][2]int
	engine, err := New(catalog,
		WithBatchSize(3),
		WithBatchHook(func(done, total int) { progress = append(progress, [2]int{done, total}) }),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.BatchSize())

	p := pallets.New("p", "", ids)
	res, err := engine.Reconcile(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Batches)
	require.Len(t, catalog.calls, 3)
	assert.Len(t, catalog.calls[0], 3)
	assert.Len(t, catalog.calls[2], 1)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
	assert.Len(t, res.Hits, 7)
}

func TestReconcileFailureLeavesPalletUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"overflow", errors.NewResultOverflowError("isbn:(...)", 1200, 1000), errors.IsResultOverflow},
		{"transport", errors.NewTransportError("openlibrary", 503, "unavailable"), errors.IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newFakeCatalog(isbnA)
			catalog.failOn = 2
			catalog.failErr = tt.err

			engine, err := New(catalog, WithBatchSize(1))
			require.NoError(t, err)

			p := pallets.New("p", "", []string{isbnA, isbnB, isbnC})
			before := p.Document()

			_, err = engine.Reconcile(context.Background(), p)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)

			assert.Equal(t, before, p.Document())
			assert.False(t, p.Queried())
			for _, item := range p.Items() {
				assert.Equal(t, pallets.Unchecked, item.Presence)
			}
		})
	}
}

func TestReconcileFailureKeepsPreviousPass(t *testing.T) {
	catalog := newFakeCatalog(isbnA)
	engine, err := New(catalog, WithBatchSize(1))
	require.NoError(t, err)

	p := pallets.New("p", "", []string{isbnA, isbnB, isbnC})
	_, err = engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	before := p.Document()

	catalog.held.Add(isbnB)
	catalog.failOn = len(catalog.calls) + 3
	catalog.failErr = errors.NewTransportError("openlibrary", 500, "boom")

	_, err = engine.Reconcile(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, before, p.Document())
}

func TestReconcileCanceled(t *testing.T) {
	catalog := newFakeCatalog(isbnA)
	engine, err := New(catalog)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pallets.New("p", "", []string{isbnA})
	_, err = engine.Reconcile(ctx, p)
	assert.True(t, errors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, catalog.calls)
	assert.False(t, p.Queried())
}

func TestReconcileEmptyPallet(t *testing.T) {
	catalog := newFakeCatalog()
	engine, err := New(catalog)
	require.NoError(t, err)

	p := pallets.New("empty", "", nil)
	res, err := engine.Reconcile(context.Background(), p)
	require.NoError(t, err)
	assert.Zero(t, res.Batches)
	assert.True(t, p.Queried())
	assert.Empty(t, catalog.calls)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsValidationError(err))

	for _, size := range []int{0, -1, 501} {
		_, err := New(newFakeCatalog(), WithBatchSize(size))
		assert.True(t, errors.IsValidationError(err), "size %d", size)
	}

	q := QuerierFunc(func(context.Context, []string) (isbn.Set, error) { return isbn.NewSet(), nil })
	_, err = New(q)
	assert.NoError(t, err)
}
