package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/errors"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL}, transport.New(ServiceName, transport.WithMaxRetries(0)))
	require.NoError(t, err)
	return client, server.URL
}

func TestLatest(t *testing.T) {
	client, base := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/advancedsearch.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "collection:protodonationitems", q.Get("q"))
		assert.Equal(t, "identifier", q.Get("fl[]"))
		assert.Equal(t, "addeddate desc", q.Get("sort[]"))
		assert.Equal(t, "5", q.Get("rows"))
		assert.Equal(t, "json", q.Get("output"))
		_, _ = w.Write(fixture(t, "latest.json"))
	}))

	locators, err := client.Latest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, locators, 5)
	assert.Equal(t, Locator{
		Name: "bwb_daily_pallets_2022-09-23",
		URL:  base + "/metadata/bwb_daily_pallets_2022-09-23",
	}, locators[0])
	assert.Equal(t, "bwb_daily_pallets_2022-09-20", locators[4].Name)
}

func TestLatestInvalidCount(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.Latest(context.Background(), 0)
	assert.True(t, errors.IsValidationError(err))
}

func TestLocate(t *testing.T) {
	client, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	tests := []struct {
		in   string
		want Locator
	}{
		{"BWB-2022-09-22", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"https://archive.org/metadata/BWB-2022-09-22", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"https://archive.org/metadata/BWB-2022-09-22/", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"details/BWB-2022-09-22", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"https://archive.org/details/BWB-2022-09-22", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"https://archive.org/details/BWB-2022-09-22?tab=about", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
		{"http://mirror.example/metadata/BWB-2022-09-22", Locator{Name: "BWB-2022-09-22", URL: "https://archive.org/metadata/BWB-2022-09-22"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, client.Locate(tt.in))
		})
	}
}

func TestISBNs(t *testing.T) {
	client, base := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/super_pallet_2020-09-21", r.URL.Path)
		_, _ = w.Write(fixture(t, "metadata.json"))
	}))

	loc := client.Locate("super_pallet_2020-09-21")
	assert.Equal(t, base+"/metadata/super_pallet_2020-09-21", loc.URL)

	ids, err := client.ISBNs(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"9788189999520",
		"9781405892469",
		"1405892463",
		"9782723496117",
		"BWBM52088056",
		"9783522182676",
		"9782880462703",
		"0823062015",
		"080442957X",
	}, ids)
}

func TestISBNsMissingMetadata(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := client.ISBNs(context.Background(), client.Locate("nope"))
	assert.True(t, errors.IsNotFound(err))
}

func TestISBNsTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.ISBNs(context.Background(), client.Locate("p"))
	assert.True(t, errors.IsTransport(err))
}

func TestIdentifierDecoding(t *testing.T) {
	var ids []identifier
	require.NoError(t, json.Unmarshal([]byte(`[123, "  9782723496117 ", null, 9.781405892469e12]`), &ids))
	assert.Equal(t, []identifier{"123", "9782723496117", "", "9781405892469"}, ids)

	assert.Error(t, json.Unmarshal([]byte(`[true]`), &ids))
}
