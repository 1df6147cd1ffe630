package regionapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("regionapi: unexpected status %d from %s", e.Code, e.URL)
}

// StatusCode returns the upstream HTTP status.
func (e *StatusError) StatusCode() int { return e.Code }

var (
	// ErrMissingURL is returned when an endpoint URL is not configured.
	ErrMissingURL = errors.New("regionapi: endpoint url is required")
)

// Client calls the children and ancestors endpoints.
type Client struct {
	opts Options
}

// New constructs a client. Both endpoint URLs must be configured.
func New(fns ...OptionFn) (*Client, error) {
	opts := NewOptions(fns...)
	if opts.ChildrenURL == "" || opts.AncestorsURL == "" {
		return nil, ErrMissingURL
	}
	return &Client{opts: opts}, nil
}

// wireRegion is a children entry as sent by the API. Ids may be strings or
// numbers.
type wireRegion struct {
	ID    json.RawMessage `json:"administrative_id"`
	Name  string          `json:"name"`
	Level string          `json:"administrative_level"`
}

// Children returns the regions whose parent is parentID.
func (c *Client) Children(ctx context.Context, parentID string) ([]region.Region, error) {
	var payload []wireRegion
	if err := c.get(ctx, c.opts.ChildrenURL, c.opts.ParentParam, parentID, &payload); err != nil {
		return nil, err
	}

	out := make([]region.Region, 0, len(payload))
	for _, entry := range payload {
		item := region.Region{
			ID:    scalarString(entry.ID),
			Name:  sanitizeText(entry.Name),
			Level: sanitizeText(entry.Level),
		}
		if item.ID == "" {
			continue
		}
		if item.Name == "" {
			item.Name = item.ID
		}
		out = append(out, item)
	}
	return out, nil
}

// Ancestors returns the ancestor ids of id ordered root to leaf.
func (c *Client) Ancestors(ctx context.Context, id string) ([]string, error) {
	var payload []json.RawMessage
	if err := c.get(ctx, c.opts.AncestorsURL, c.opts.AncestorParam, id, &payload); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(payload))
	for _, raw := range payload {
		if value := scalarString(raw); value != "" {
			out = append(out, value)
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, param, value string, out any) error {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("regionapi: parse url: %w", err)
	}
	q := reqURL.Query()
	q.Set(param, value)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("regionapi: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	c.opts.Logger.Debug("regionapi_request", "url", reqURL.String())
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("regionapi: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: reqURL.String()}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("regionapi: decode: %w", err)
	}
	return nil
}

// scalarString accepts ids encoded as JSON strings or numbers.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
