// Package client calls the curator REST API. It implements the same
// collaborator contracts as the in-process store, so the synchronizer and
// the search provider can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/models"
)

const maxErrorBody = 64 << 10

// Client is a REST client for one curator server.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MoveResponse is the body returned by the move endpoint.
type MoveResponse struct {
	Items []models.OrderedItem `json:"items"`
}

// Filter returns one page of a collection.
func (c *Client) Filter(ctx context.Context, p models.FilterParams) (*models.ItemPage, error) {
	q := url.Values{}
	if p.Scope != "" {
		q.Set("scope", p.Scope)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	var out models.ItemPage
	if err := c.do(ctx, http.MethodGet, collectionPath(p.Kind), q, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("client: filter %s: %w", p.Kind, err)
	}
	return &out, nil
}

// Get returns a single item.
func (c *Client) Get(ctx context.Context, kind, id string) (*models.OrderedItem, error) {
	var out models.OrderedItem
	if err := c.do(ctx, http.MethodGet, itemPath(kind, id), nil, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("client: get %s/%s: %w", kind, id, err)
	}
	return &out, nil
}

// Create appends a new item to its collection.
func (c *Client) Create(ctx context.Context, p content.CreateParams) (*models.OrderedItem, error) {
	var out models.OrderedItem
	if err := c.do(ctx, http.MethodPost, collectionPath(p.Kind), nil, nil, p, &out); err != nil {
		return nil, fmt.Errorf("client: create %s: %w", p.Kind, err)
	}
	return &out, nil
}

// Update replaces label and payload. p.IfMatch is sent as If-Match.
func (c *Client) Update(ctx context.Context, kind, id string, p content.UpdateParams) (*models.OrderedItem, error) {
	var hdr http.Header
	if p.IfMatch != "" {
		hdr = http.Header{"If-Match": {`"` + p.IfMatch + `"`}}
	}
	var out models.OrderedItem
	if err := c.do(ctx, http.MethodPut, itemPath(kind, id), nil, hdr, p, &out); err != nil {
		return nil, fmt.Errorf("client: update %s/%s: %w", kind, id, err)
	}
	return &out, nil
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, kind, id string) error {
	if err := c.do(ctx, http.MethodDelete, itemPath(kind, id), nil, nil, nil, nil); err != nil {
		return fmt.Errorf("client: delete %s/%s: %w", kind, id, err)
	}
	return nil
}

// Move positions an item and returns the server's resulting order.
func (c *Client) Move(ctx context.Context, kind, id string, p models.MoveParams) ([]models.OrderedItem, error) {
	var out MoveResponse
	if err := c.do(ctx, http.MethodPost, itemPath(kind, id)+"/move", nil, nil, p, &out); err != nil {
		return nil, fmt.Errorf("client: move %s/%s: %w", kind, id, err)
	}
	return out.Items, nil
}

// Search returns one page of options for kind.
func (c *Client) Search(ctx context.Context, kind, keyword string, page, limit int) (*models.SearchPage, error) {
	q := url.Values{"q": {keyword}, "page": {strconv.Itoa(page)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out models.SearchPage
	if err := c.do(ctx, http.MethodGet, "/api/search/"+url.PathEscape(kind), q, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("client: search %s: %w", kind, err)
	}
	return &out, nil
}

func collectionPath(kind string) string {
	return "/api/collections/" + url.PathEscape(kind)
}

func itemPath(kind, id string) string {
	return collectionPath(kind) + "/" + url.PathEscape(id)
}

// do sends a request with an optional JSON body and decodes a JSON response
// into out. Non-2xx responses become *apperr.RemoteError carrying the
// server's "error" message.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, hdr http.Header, body, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	for k, vs := range hdr {
		req.Header[k] = vs
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func remoteError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &apperr.RemoteError{Status: resp.StatusCode, Message: body.Error}
	}
	return &apperr.RemoteError{Status: resp.StatusCode}
}
