// Package archive lists promise-item pallets held by the Internet Archive and
// reads the ISBNs recorded in their metadata.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/promise/internal/transport"
	"github.com/agentstation/promise/pkg/constants"
	"github.com/agentstation/promise/pkg/errors"
	"github.com/agentstation/promise/pkg/isbn"
	"github.com/agentstation/promise/pkg/logging"
)

// ServiceName identifies the Internet Archive in errors and logs.
const ServiceName = "archive"

// Config holds the listing endpoints.
type Config struct {
	// BaseURL is the archive root, e.g. https://archive.org
	BaseURL string

	// Collection holds the pallet items
	Collection string
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    constants.ArchiveURL,
		Collection: constants.PromiseCollection,
	}
}

// Locator identifies one pallet and where its metadata lives.
type Locator struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Client reads pallet listings and metadata.
type Client struct {
	cfg  Config
	http *transport.Client
}

// New creates a client. A nil transport gets a default one.
func New(cfg Config, tc *transport.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.ArchiveURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.NewConfigError(ServiceName, "invalid base url", err)
	}
	if cfg.Collection == "" {
		cfg.Collection = constants.PromiseCollection
	}
	if tc == nil {
		tc = transport.New(ServiceName)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: tc}, nil
}

type searchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			Identifier string `json:"identifier"`
		} `json:"docs"`
	} `json:"response"`
}

// LatestURL returns the advanced-search URL listing the newest count pallets.
func (c *Client) LatestURL(count int) string {
	q := url.Values{}
	q.Set("q", "collection:"+c.cfg.Collection)
	q.Set("fl[]", "identifier")
	q.Set("sort[]", "addeddate desc")
	q.Set("rows", strconv.Itoa(count))
	q.Set("page", "1")
	q.Set("output", "json")
	return c.cfg.BaseURL + "/advancedsearch.php?" + q.Encode()
}

// Latest returns the count most recently added pallets, newest first.
func (c *Client) Latest(ctx context.Context, count int) ([]Locator, error) {
	if count <= 0 {
		return nil, errors.NewValidationError("count", count, "must be positive")
	}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.LatestURL(count), &resp); err != nil {
		return nil, err
	}

	locators := make([]Locator, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		locators = append(locators, c.Locate(doc.Identifier))
	}

	logging.FromContext(ctx).Debug().
		Int("requested", count).
		Int("returned", len(locators)).
		Int("collection_size", resp.Response.NumFound).
		Msg("Listed latest pallets")

	return locators, nil
}

// Locate resolves a pallet name or any archive URL naming it, such as a
// details or metadata link. The pallet name is the last path segment, and the
// metadata URL is always rebuilt from it.
func (c *Client) Locate(nameOrURL string) Locator {
	s := strings.TrimSpace(nameOrURL)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" {
		s = u.Path
	}
	s = strings.TrimRight(s, "/")
	name := s[strings.LastIndex(s, "/")+1:]
	return Locator{Name: name, URL: c.cfg.BaseURL + "/metadata/" + url.PathEscape(name)}
}

type metadataResponse struct {
	Extrameta *struct {
		ISBN []identifier `json:"isbn"`
	} `json:"extrameta"`
}

// ISBNs returns the raw identifiers recorded for a pallet, in listing order.
func (c *Client) ISBNs(ctx context.Context, loc Locator) ([]string, error) {
	var resp metadataResponse
	if err := c.http.GetJSON(ctx, loc.URL, &resp); err != nil {
		return nil, err
	}
	if resp.Extrameta == nil {
		return nil, errors.NewNotFoundError("pallet metadata", loc.Name)
	}

	ids := make([]string, 0, len(resp.Extrameta.ISBN))
	for _, id := range resp.Extrameta.ISBN {
		if id != "" {
			ids = append(ids, string(id))
		}
	}
	return ids, nil
}

// identifier accepts ISBNs recorded either as JSON strings or as JSON numbers.
type identifier string

func (id *identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = identifier(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("isbn must be a string or number: %w", err)
	}
	digits := n.String()
	if strings.ContainsAny(digits, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return err
		}
		digits = strconv.FormatFloat(f, 'f', 0, 64)
	}
	*id = identifier(padISBN10(digits))
	return nil
}

// padISBN10 restores leading zeros lost when an ISBN-10 was stored as a number.
func padISBN10(digits string) string {
	if len(digits) >= 10 {
		return digits
	}
	padded := strings.Repeat("0", 10-len(digits)) + digits
	if isbn.Valid10(padded) {
		return padded
	}
	return digits
}
