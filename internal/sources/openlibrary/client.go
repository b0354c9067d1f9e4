// Package openlibrary implements catalog lookups and ISBN registration
// against Open Library.
package openlibrary

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/isbn"
	"github.com/agentstation/promise/pkg/logging"
	"github.com/agentstation/promise/pkg/register"
)

// ServiceName identifies Open Library in errors and logs.
const ServiceName = "openlibrary"

// Config holds the catalog endpoints and limits.
type Config struct {
	// BaseURL is the catalog root, e.g. https://openlibrary.org
	BaseURL string

	// ResultLimit is the number of documents requested per search.
	// A search reporting more matches than this fails with a ResultOverflowError.
	ResultLimit int
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     constants.OpenLibraryURL,
		ResultLimit: constants.DefaultResultLimit,
	}
}

// Client talks to the Open Library search and ISBN endpoints.
type Client struct {
	cfg  Config
	http *transport.Client
}

// New creates a client. A nil transport gets a default one.
func New(cfg Config, tc *transport.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.OpenLibraryURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.NewConfigError(ServiceName, "invalid base url", err)
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = constants.DefaultResultLimit
	}
	if tc == nil {
		tc = transport.New(ServiceName)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: tc}, nil
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	ISBN []string `json:"isbn"`
}

// SearchURL returns the search endpoint for the given ISBNs.
func (c *Client) SearchURL(isbns []string) string {
	q := url.Values{}
	q.Set("fields", "isbn")
	q.Set("limit", strconv.Itoa(c.cfg.ResultLimit))
	q.Set("q", searchQuery(isbns))
	return c.cfg.BaseURL + "/search.json?" + q.Encode()
}

// solrEscaper backslash-escapes Solr query syntax so identifiers kept
// verbatim by the normalizer stay single terms.
var solrEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `&`, `\&`, `|`, `\|`, `!`, `\!`,
	`(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`,
	`^`, `\^`, `"`, `\"`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `:`, `\:`,
	`/`, `\/`, ` `, `\ `, "\t", "\\\t",
)

func searchQuery(isbns []string) string {
	terms := make([]string, len(isbns))
	for i, id := range isbns {
		terms[i] = solrEscaper.Replace(id)
	}
	return "isbn:(" + strings.Join(terms, " OR ") + ")"
}

// Query returns the subset of isbns held by the catalog. Document ISBNs are
// canonicalized before matching, so records that only list an ISBN-10 still
// match an ISBN-13 query.
func (c *Client) Query(ctx context.Context, isbns []string) (isbn.Set, error) {
	found := isbn.NewSet()
	if len(isbns) == 0 {
		return found, nil
	}

	endpoint := c.SearchURL(isbns)
	var resp searchResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.NumFound > c.cfg.ResultLimit {
		return nil, errors.NewResultOverflowError(searchQuery(isbns), resp.NumFound, c.cfg.ResultLimit)
	}

	wanted := isbn.NewSet(isbns...)
	for _, doc := range resp.Docs {
		for _, id := range doc.ISBN {
			if wanted.Has(id) {
				found.Add(id)
			} else if canonical := isbn.Canonical(id); wanted.Has(canonical) {
				found.Add(canonical)
			}
		}
	}

	logging.FromContext(ctx).Trace().
		Int("queried", len(isbns)).
		Int("num_found", resp.NumFound).
		Int("matched", found.Len()).
		Msg("Catalog search")

	return found, nil
}

// RegisterURL returns the ISBN endpoint that triggers an import.
func (c *Client) RegisterURL(id string) string {
	return c.cfg.BaseURL + "/isbn/" + url.PathEscape(id)
}

// Register asks the catalog to resolve id, which imports the book from a
// partner source when the catalog does not have it yet.
func (c *Client) Register(ctx context.Context, id string) (register.Outcome, error) {
	endpoint := c.RegisterURL(id)
	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return register.OutcomeFailed, err
	}
	defer transport.Drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return register.OutcomeAccepted, nil
	case resp.StatusCode == http.StatusNotFound:
		return register.OutcomeNotFound, nil
	}
	return register.OutcomeFailed, transport.StatusError(resp, ServiceName, endpoint, nil)
}
