// Package directory implements the directory/calendar capability: the
// full user-id listing, lightweight profile lookups, and the calendar
// search that feeds the leave-reconciliation engine.
//
// A calendar search can fail upstream while still answering 200 with
// an {errorCode, message} payload. That case decodes into a typed
// *UpstreamError so callers branch on the error value instead of
// sniffing fields.
package directory

import (
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

// searchQuery matches both presence tags in one calendar search.
const searchQuery = "TTO || TTR"

// UpstreamError is a calendar-search failure reported inside an
// otherwise successful response.
type UpstreamError struct {
	Code    string `json:"errorCode"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("directory: upstream error %s: %s", e.Code, e.Message)
}

// Client talks to the directory/calendar backend for one domain.
type Client struct {
	baseURL string
	token   string
	domain  string
	http    *http.Client
	log     zerolog.Logger
}

// New constructs a Client. timeout bounds every request; a hanging
// search occupies one reconciliation slot until the client gives up.
func New(baseURL, token, domain string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		domain:  domain,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "directory").Logger(),
	}
}

// Domain returns the directory domain this client is bound to.
func (c *Client) Domain() string { return c.domain }

// get issues an authenticated GET and returns the raw body on 2xx.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory: %s returned status %d", req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// AllUserIDs returns every uid known to the directory domain.
func (c *Client) AllUserIDs(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/api/directory/%s/users", c.baseURL, url.PathEscape(c.domain))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var uids []string
	if err := json.Unmarshal(body, &uids); err != nil {
		return nil, err
	}
	return uids, nil
}

// UserProfile fetches the lightweight profile variant for one uid. The
// light view carries only the display name and login, which is all the
// record-creation path needs.
func (c *Client) UserProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	u := fmt.Sprintf("%s/api/directory/%s/users/%s?view=light",
		c.baseURL, url.PathEscape(c.domain), url.PathEscape(uid))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var p domain.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p.Value.Login == "" {
		return nil, fmt.Errorf("directory: profile for %s has no login", uid)
	}
	return &p, nil
}

// SearchCalendar queries one user's calendar for presence-tagged
// events inside the window. The backend answers either with an event
// array or with an {errorCode, message} object; the latter is returned
// as *UpstreamError.
func (c *Client) SearchCalendar(ctx context.Context, uid string, w domain.DateWindow) ([]domain.CalendarEvent, error) {
	q := url.Values{
		"query":   {searchQuery},
		"dateMin": {w.DateMin.ISO8601},
		"dateMax": {w.DateMax.ISO8601},
	}
	u := fmt.Sprintf("%s/api/calendar/%s/search/%s?%s",
		c.baseURL, url.PathEscape(c.domain), url.PathEscape(uid), q.Encode())
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var ue UpstreamError
		if err := json.Unmarshal(body, &ue); err != nil {
			return nil, err
		}
		if ue.Code != "" || ue.Message != "" {
			return nil, &ue
		}
		return nil, fmt.Errorf("directory: unexpected search payload for %s", uid)
	}

	var events []domain.CalendarEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, err
	}
	return events, nil
}
