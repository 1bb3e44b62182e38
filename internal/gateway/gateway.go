// Package gateway is the client for the hosted data API. The remote side is
// an opaque CRUD service keyed by server-assigned objectIds; this package
// only knows how to dispatch operations and classify failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
)

// Table names on the remote store.
const (
	TableSales          = "Sales"
	TableStock          = "Stock"
	TableProducts       = "Products"
	TableFinancialNotes = "FinancialNotes"
	TableGeneralNotes   = "GeneralNotes"
	TableAutoPost       = "AutoPostConfig"
)

// Client dispatches CRUD operations against the remote data gateway.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logrus.Entry
}

// New creates a gateway client. The timeout bounds every dispatch so a hung
// request cannot stall a drain pass indefinitely.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     logging.WithComponent("gateway"),
	}
}

// Create inserts a new entity and decodes the confirmed entity (including
// its server-assigned objectId) into out.
func (c *Client) Create(ctx context.Context, table string, fields, out interface{}) error {
	return c.do(ctx, http.MethodPost, "/api/data/"+table, nil, fields, out)
}

// Update merges partial fields into an existing entity.
func (c *Client) Update(ctx context.Context, table, objectID string, fields, out interface{}) error {
	return c.do(ctx, http.MethodPut, "/api/data/"+table+"/"+objectID, nil, fields, out)
}

// Delete removes an entity by objectId.
func (c *Client) Delete(ctx context.Context, table, objectID string) error {
	return c.do(ctx, http.MethodDelete, "/api/data/"+table+"/"+objectID, nil, nil, nil)
}

// List fetches entities with optional query parameters (sortBy, pageSize).
func (c *Client) List(ctx context.Context, table string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, "/api/data/"+table, query, nil, out)
}

// Ping probes reachability. Any HTTP response at all means the gateway is
// reachable; only transport-level failures count as offline.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/data/"+TableStock, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// do performs one HTTP dispatch and classifies the outcome: transport
// failures wrap ErrUnreachable (nothing reached the server), HTTP error
// statuses become *RejectionError (the server processed and refused).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).
			Debug("gateway unreachable")
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("gateway rejected request")
		return &RejectionError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
