package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/register"
)

var palletISBNs = []string{
	"9781405892469",
	"9782723496117",
	"9782880462703",
	"9783522182676",
	"9788189999520",
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc, limit int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tc := transport.New(ServiceName,
		transport.WithMaxRetries(1),
		transport.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	client, err := New(Config{BaseURL: server.URL + "/", ResultLimit: limit}, tc)
	require.NoError(t, err)
	return client
}

func TestQuery(t *testing.T) {
	var gotQuery, gotLimit, gotFields string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotFields = r.URL.Query().Get("fields")
		_, _ = w.Write(fixture(t, "search_initial.json"))
	}, 1000)

	found, err := client.Query(context.Background(), palletISBNs)
	require.NoError(t, err)

	assert.Equal(t, []string{"9781405892469", "9782880462703", "9788189999520"}, found.Sorted())
	assert.Equal(t, "isbn:(9781405892469 OR 9782723496117 OR 9782880462703 OR 9783522182676 OR 9788189999520)", gotQuery)
	assert.Equal(t, "1000", gotLimit)
	assert.Equal(t, "isbn", gotFields)
}

func TestQueryEscapesNonISBNIdentifiers(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"numFound": 1, "docs": [{"isbn": ["9781405892469"]}]}`))
	}, 100)

	found, err := client.Query(context.Background(), []string{"9781405892469", "BWB:12 (a)", `x"y\z`})
	require.NoError(t, err)

	assert.Equal(t, `isbn:(9781405892469 OR BWB\:12\ \(a\) OR x\"y\\z)`, gotQuery)
	assert.Equal(t, []string{"9781405892469"}, found.Sorted())
}

func TestQueryMatchesISBN10Records(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture(t, "search_after_import.json"))
	}, 1000)

	found, err := client.Query(context.Background(), palletISBNs)
	require.NoError(t, err)
	assert.True(t, found.Has("9782723496117"))
	assert.False(t, found.Has("9783522182676"))
	assert.False(t, found.Has("9780823062010"), "only queried ISBNs are returned")
}

func TestQueryOverflow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture(t, "search_initial.json"))
	}, 2)

	_, err := client.Query(context.Background(), palletISBNs)
	var overflow *errors.ResultOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 3, overflow.Found)
	assert.Equal(t, 2, overflow.Limit)
}

func TestQueryTransportFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 1000)

	found, err := client.Query(context.Background(), palletISBNs)
	assert.Nil(t, found, "failures are never reported as absence")
	assert.True(t, errors.IsTransport(err))
}

func TestQueryEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, 1000)

	found, err := client.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, found.Len())
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    register.Outcome
		wantErr bool
	}{
		{"accepted", http.StatusOK, register.OutcomeAccepted, false},
		{"not found", http.StatusNotFound, register.OutcomeNotFound, false},
		{"server error", http.StatusBadGateway, register.OutcomeFailed, true},
		{"forbidden", http.StatusForbidden, register.OutcomeFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.WriteHeader(tt.status)
			}, 1000)

			outcome, err := client.Register(context.Background(), "9782723496117")
			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, "/isbn/9782723496117", path)
			if tt.wantErr {
				assert.True(t, errors.IsTransport(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9782723496117", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/books/OL1M", http.StatusFound)
	})
	mux.HandleFunc("/books/OL1M", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, mux.ServeHTTP, 1000)

	outcome, err := client.Register(context.Background(), "9782723496117")
	require.NoError(t, err)
	assert.Equal(t, register.OutcomeAccepted, outcome)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://openlibrary.org", cfg.BaseURL)
	assert.Equal(t, 1000, cfg.ResultLimit)

	client, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://openlibrary.org/isbn/123", client.RegisterURL("123"))
}
