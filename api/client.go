// Package api is the REST client for the results backend.
//
// The backend owns all business rules; this client only moves data. Every
// failure surfaces as an explicit error for the caller to attach to its
// slice; nothing here panics or retries. Authentication failures (401,
// or the missing-token sentinel) bypass the normal error path and fire
// the unauthorized hook, which forces a logout upstream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/scrutin-io/scrutin/iox"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/types"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// Sentinel errors for the authentication short-circuit.
var (
	// ErrNoToken means no auth token is available; the request was never sent.
	ErrNoToken = errors.New("no auth token")
	// ErrUnauthorized means the backend rejected the token (401).
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for non-2xx responses other than 401.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Config configures the REST client.
type Config struct {
	// BaseURL is the API root, e.g. https://results.example.org/api (required).
	BaseURL string
	// Timeout bounds each request (default 30s).
	Timeout time.Duration
	// Token supplies the current auth token; empty means none.
	Token func() string
	// OnUnauthorized fires on 401 or missing token, before the error
	// returns. Used to force a logout. Optional.
	OnUnauthorized func()
}

// Client talks to the results backend.
type Client struct {
	cfg  Config
	http *http.Client
	log  *log.Logger
}

// New creates a REST client.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api client requires a base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Token == nil {
		cfg.Token = func() string { return "" }
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}, nil
}

// Elections fetches the elections list.
func (c *Client) Elections(ctx context.Context) ([]types.Election, error) {
	var out []types.Election
	if err := c.do(ctx, http.MethodGet, "/elections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Regions fetches the regions list.
func (c *Client) Regions(ctx context.Context) ([]types.Region, error) {
	var out []types.Region
	if err := c.do(ctx, http.MethodGet, "/regions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// keyedRequest is the body of the keyed result fetches.
type keyedRequest struct {
	ElectionID     int64 `json:"id_election"`
	ConstituencyID int64 `json:"id_cir"`
	Round          int   `json:"nb_tour"`
	Year           int   `json:"annee,omitempty"`
}

func keyed(p types.Params) keyedRequest {
	return keyedRequest{
		ElectionID:     p.ElectionID,
		ConstituencyID: p.ConstituencyID,
		Round:          p.Round,
		Year:           p.Year,
	}
}

// DepartmentResults fetches the department-level aggregates.
func (c *Client) DepartmentResults(ctx context.Context, p types.Params) (*types.DepartmentResults, error) {
	var out types.DepartmentResults
	if err := c.do(ctx, http.MethodPost, "/resultats/departement", keyed(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConstituencyTotals fetches the constituency vote and percentage totals.
func (c *Client) ConstituencyTotals(ctx context.Context, p types.Params) (*types.ConstituencyTotals, error) {
	var out types.ConstituencyTotals
	if err := c.do(ctx, http.MethodPost, "/resultats/circonscription", keyed(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Roster fetches the candidate/party roster.
func (c *Client) Roster(ctx context.Context, p types.Params) ([]types.Party, error) {
	var out []types.Party
	if err := c.do(ctx, http.MethodPost, "/partis/candidats", keyed(p), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LocationResults fetches the location result tree, keyed by department name.
func (c *Client) LocationResults(ctx context.Context, department string) ([]types.Locality, error) {
	body := struct {
		Department string `json:"nom_departement"`
	}{Department: department}
	var out []types.Locality
	if err := c.do(ctx, http.MethodPost, "/resultats/localites", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitDetailed submits the per-party station rows.
func (c *Client) SubmitDetailed(ctx context.Context, entries []types.DetailedEntry) error {
	if len(entries) == 0 {
		return errors.New("no detailed entries to submit")
	}
	return c.do(ctx, http.MethodPost, "/saisie/details", entries, nil)
}

// do performs one JSON request. out may be nil when no body is expected.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.cfg.Token()
	if token == "" {
		c.unauthorized()
		return ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.unauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
}

func (c *Client) unauthorized() {
	c.log.Warn("authentication failure, forcing logout", nil)
	if c.cfg.OnUnauthorized != nil {
		c.cfg.OnUnauthorized()
	}
}
