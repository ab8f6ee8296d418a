// Package baserow implements the record-store capability against a
// Baserow-style row API. The reconciler reads the presence table as a
// single field-name-addressed page and writes rows back individually
// via create and patch calls.
//
// All configuration (base URL, token, table id) is injected at
// construction; nothing here reads ambient state.
package baserow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// pageSize is the single page requested by ListAll. The presence table
// is expected to stay well under this; rows beyond it are not fetched
// (see DESIGN.md for the pagination decision).
const pageSize = 200

// StatusError reports a non-2xx response from the store, carrying the
// response body for diagnostics.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("baserow: unexpected status %d: %s", e.Status, e.Body)
}

// ListResponse is the envelope of a table listing.
type ListResponse struct {
	Count   int                 `json:"count"`
	Results []domain.UserRecord `json:"results"`
}

// Client talks to one Baserow table.
type Client struct {
	baseURL string
	token   string
	tableID int
	http    *http.Client
	log     zerolog.Logger
}

// New constructs a Client for the given table. timeout bounds every
// request made through the client; there is no per-call retry.
func New(baseURL, token string, tableID int, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		tableID: tableID,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "baserow").Logger(),
	}
}

// rowsURL builds the table rows endpoint with user_field_names always
// requested, plus any extra query parameters.
func (c *Client) rowsURL(suffix string, extra url.Values) string {
	q := url.Values{"user_field_names": {"true"}}
	for k, vs := range extra {
		q[k] = vs
	}
	return fmt.Sprintf("%s/api/database/rows/table/%d/%s?%s", c.baseURL, c.tableID, suffix, q.Encode())
}

// do sends the request with auth headers and decodes the response body
// into out when out is non-nil. Non-2xx statuses return *StatusError.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListAll fetches the full presence table in one page of up to 200
// rows, field-name addressed.
func (c *Client) ListAll(ctx context.Context) ([]domain.UserRecord, error) {
	var lr ListResponse
	u := c.rowsURL("", url.Values{"size": {fmt.Sprint(pageSize)}})
	if err := c.do(ctx, http.MethodGet, u, nil, &lr); err != nil {
		return nil, err
	}
	if lr.Count > len(lr.Results) {
		c.log.Warn().Int("count", lr.Count).Int("fetched", len(lr.Results)).
			Msg("table larger than one page, remainder ignored")
	}
	return lr.Results, nil
}

// Create inserts a new row from field-name-addressed values and
// returns the created record.
func (c *Client) Create(ctx context.Context, fields map[string]any) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	if err := c.do(ctx, http.MethodPost, c.rowsURL("", nil), fields, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Patch partially updates the row identified by rowID. A non-2xx
// response surfaces as *StatusError; the caller decides whether that
// is fatal.
func (c *Client) Patch(ctx context.Context, rowID int64, fields map[string]any) error {
	u := c.rowsURL(fmt.Sprintf("%d/", rowID), nil)
	return c.do(ctx, http.MethodPatch, u, fields, nil)
}
