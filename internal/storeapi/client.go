// Package storeapi is the HTTP client for the remote marketplace store,
// which stays authoritative for orders and listings. Responses are
// mapped to a small sentinel-error taxonomy callers branch on with
// errors.Is.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stockops/internal/order"
	"stockops/internal/status"
	"stockops/internal/stock"
)

var (
	ErrAuthExpired = errors.New("authorization expired")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflicting transition")
	ErrTransient   = errors.New("transient upstream error")
)

type Client struct {
	base string
	hc   *http.Client
}

// New creates a client for the store at base. hc may be nil; the
// default client carries a request timeout so a hung upstream surfaces
// as an error instead of hanging a transition forever.
func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: base, hc: hc}
}

type statusUpdate struct {
	Status string `json:"status"`
	Expect string `json:"expect"`
}

// UpdateOrderStatus posts the transition with the expected current
// status; the server answers 409 when its stored status has moved on.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, expect, target status.Status) error {
	body, err := json.Marshal(statusUpdate{Status: string(target), Expect: string(expect)})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}
	u := fmt.Sprintf("%s/orders/%s/status", c.base, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	defer drain(resp)
	return mapStatusCode(resp.StatusCode)
}

// FetchOrder retrieves one order with its status history.
func (c *Client) FetchOrder(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	u := fmt.Sprintf("%s/orders/%s", c.base, url.PathEscape(id))
	if err := c.getJSON(ctx, u, &o); err != nil {
		return nil, err
	}
	// Validate history statuses at the decode boundary.
	for _, ev := range o.Events {
		if _, err := status.Parse(string(ev.Status)); err != nil {
			return nil, fmt.Errorf("order %s: %w", id, err)
		}
	}
	return &o, nil
}

func (c *Client) FetchProducts(ctx context.Context) ([]stock.Product, error) {
	var out []stock.Product
	if err := c.getJSON(ctx, c.base+"/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchDonations(ctx context.Context) ([]stock.Donation, error) {
	var out []stock.Donation
	if err := c.getJSON(ctx, c.base+"/donations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchExchanges(ctx context.Context) ([]stock.Exchange, error) {
	var out []stock.Exchange
	if err := c.getJSON(ctx, c.base+"/exchanges", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPublished flips the publish flag of one listing.
func (c *Client) SetPublished(ctx context.Context, kind stock.Kind, id string, published bool) error {
	body, err := json.Marshal(map[string]bool{"published": published})
	if err != nil {
		return fmt.Errorf("marshal publish flag: %w", err)
	}
	u := c.listingURL(kind, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	defer drain(resp)
	return mapStatusCode(resp.StatusCode)
}

// DeleteListing removes one listing.
func (c *Client) DeleteListing(ctx context.Context, kind stock.Kind, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.listingURL(kind, id), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	defer drain(resp)
	return mapStatusCode(resp.StatusCode)
}

func (c *Client) listingURL(kind stock.Kind, id string) string {
	return fmt.Sprintf("%s/listings/%s/%s", c.base, kind, url.PathEscape(id))
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", u, err)
	}
	defer drain(resp)
	if err := mapStatusCode(resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func mapStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrAuthExpired
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	case code >= 500:
		return fmt.Errorf("%w: upstream returned %d", ErrTransient, code)
	}
	return fmt.Errorf("unexpected upstream status %d", code)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
