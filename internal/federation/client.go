package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rtCamp/onesearch/internal/index"
	"github.com/rtCamp/onesearch/internal/scope"
)

// TokenHeader carries the shared secret on every sync protocol call.
const TokenHeader = "X-OneSearch-Token"

// ScopeHeader identifies the calling scope on brand-to-governing calls.
const ScopeHeader = "X-OneSearch-Scope"

// Envelope is the JSON shape every sync protocol response uses.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client speaks the sync protocol against one remote site: a brand site
// constructs it against the governing URL, the governing site constructs one
// per brand for fan-out calls.
type Client struct {
	BaseURL    string
	Secret     string
	Scope      scope.Key
	HTTPClient *http.Client
}

// NewClient builds a sync client for the given remote site.
func NewClient(baseURL, secret string, self scope.Key) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Secret:     secret,
		Scope:      self,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchConfig retrieves this brand's materialized config from the governing
// site.
func (c *Client) FetchConfig(ctx context.Context) (BrandConfig, error) {
	var cfg BrandConfig
	q := url.Values{"scope": {string(c.Scope)}}
	if err := c.call(ctx, http.MethodGet, "/sync/config?"+q.Encode(), nil, &cfg); err != nil {
		return BrandConfig{}, err
	}
	return cfg, nil
}

// PushChange forwards a content change, with freshly built records, to the
// governing site. Implements the change watcher's Pusher.
func (c *Client) PushChange(ctx context.Context, ev index.ChangeEvent, records []index.Record) error {
	push := DocumentPush{
		EventID:   uuid.New().String(),
		Scope:     c.Scope,
		ContentID: ev.Item.ID,
		Type:      ev.Item.Type,
		OldStatus: ev.OldStatus,
		NewStatus: ev.NewStatus,
		Records:   records,
	}
	return c.call(ctx, http.MethodPost, "/sync/document", push, nil)
}

// TriggerReindex asks the remote brand site to rebuild its whole scope.
func (c *Client) TriggerReindex(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/sync/reindex", nil, nil)
}

// CacheBust tells the remote brand site its cached config is stale.
func (c *Client) CacheBust(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/sync/cache-bust", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, c.Secret)
	req.Header.Set(ScopeHeader, string(c.Scope))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteInvalidResponse, method, path, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: %s %s: %s", ErrRemoteInvalidResponse, method, path, msg)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrRemoteInvalidResponse, method, path, err)
		}
	}
	return nil
}
