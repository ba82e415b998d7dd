// Package external adapts the read-only upstream users API. All calls are
// single-attempt; failure policy is decided by the caller.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user/entity"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ConfigFromEnv reads upstream API config from env vars.
func ConfigFromEnv() Config {
	base := os.Getenv("EXTERNAL_API_BASE_URL")
	if base == "" {
		base = "https://jsonplaceholder.typicode.com"
	}
	timeout := 10 * time.Second
	if v := os.Getenv("EXTERNAL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}
	return Config{BaseURL: base, Timeout: timeout}
}

// Client is a stateless proxy over the upstream users API.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.SugaredLogger
}

func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// idString accepts either a JSON number or a JSON string; the upstream API
// serves numeric ids while local records use opaque strings.
type idString string

func (s *idString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = idString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = idString(n.String())
	return nil
}

// userPayload mirrors the upstream record shape, which carries no type field.
type userPayload struct {
	ID       idString       `json:"id"`
	Name     string         `json:"name"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Address  entity.Address `json:"address"`
	Active   *bool          `json:"active,omitempty"`
}

func (p userPayload) record() entity.User {
	return entity.User{
		ID:       string(p.ID),
		Name:     p.Name,
		Username: p.Username,
		Email:    p.Email,
		Address:  p.Address,
		Active:   p.Active,
	}
}

func payloadsToRecords(payloads []userPayload) []entity.User {
	out := make([]entity.User, len(payloads))
	for i, p := range payloads {
		out[i] = p.record()
	}
	return out
}

// GetAll fetches every upstream record.
func (c *Client) GetAll(ctx context.Context) ([]entity.User, error) {
	var payloads []userPayload
	if _, err := c.getJSON(ctx, "get_all", "/users", &payloads); err != nil {
		return nil, err
	}
	return payloadsToRecords(payloads), nil
}

// GetByID fetches a single upstream record. A 404 yields (nil, nil); any
// other failure is a transport error.
func (c *Client) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var payload userPayload
	found, err := c.getJSON(ctx, "get_by_id", "/users/"+url.PathEscape(id), &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	u := payload.record()
	return &u, nil
}

// GetByUsername fetches upstream records filtered by username. The upstream
// endpoint is get-all-filtered-by-query-param, so zero, one, or many matches
// are all valid.
func (c *Client) GetByUsername(ctx context.Context, username string) ([]entity.User, error) {
	var payloads []userPayload
	if _, err := c.getJSON(ctx, "get_by_username", "/users?username="+url.QueryEscape(username), &payloads); err != nil {
		return nil, err
	}
	return payloadsToRecords(payloads), nil
}

// getJSON issues a GET and decodes the body into out. Returns found=false on
// a 404 without touching out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return false, fmt.Errorf("external api %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	c.logger.Debugw("external api call", "op", op, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordExternalCall(op, "error")
		return false, fmt.Errorf("external api %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		observability.RecordExternalCall(op, "not_found")
		return false, nil
	case resp.StatusCode != http.StatusOK:
		observability.RecordExternalCall(op, "error")
		return false, fmt.Errorf("external api %s: unexpected status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.RecordExternalCall(op, "error")
		return false, fmt.Errorf("external api %s: decode response: %w", op, err)
	}
	observability.RecordExternalCall(op, "ok")
	return true, nil
}
