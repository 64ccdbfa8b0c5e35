// Package client talks to the productdesk HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ProductDesk/internal/catalog"
	"ProductDesk/internal/product"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrBadStatus   = errors.New("productdesk bad status")
	ErrUnavailable = errors.New("productdesk unavailable")
)

// Product is a product as the API returns it, with its derived total.
type Product struct {
	product.Product
	Total   float64 `json:"total"`
	IsValid bool    `json:"isValid"`
}

type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// Result reports whether the server managed to persist a mutation, as
// signalled by the catalog.HeaderPersisted response header.
type Result struct {
	Persisted bool
}

func (c *Client) List(ctx context.Context, keyword string) ([]Product, error) {
	path := "/products"
	if keyword != "" {
		path += "?q=" + url.QueryEscape(keyword)
	}
	var out []Product
	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id int64) (Product, error) {
	var out Product
	_, err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, in product.Input, count int) ([]Product, Result, error) {
	body := struct {
		product.Input
		Count int `json:"count"`
	}{in, count}

	var out []Product
	res, err := c.do(ctx, http.MethodPost, "/products", body, &out)
	return out, res, err
}

func (c *Client) Update(ctx context.Context, id int64, in product.Input) (Product, Result, error) {
	var out Product
	res, err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(id, 10), in, &out)
	return out, res, err
}

func (c *Client) Delete(ctx context.Context, id int64) ([]Product, Result, error) {
	var out []Product
	res, err := c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(id, 10), nil, &out)
	return out, res, err
}

func (c *Client) SearchMode(ctx context.Context) (string, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	_, err := c.do(ctx, http.MethodGet, "/search-mode", nil, &out)
	return out.Mode, err
}

func (c *Client) SetSearchMode(ctx context.Context, mode string) (Result, error) {
	return c.do(ctx, http.MethodPut, "/search-mode", map[string]string{"mode": mode}, nil)
}

func (c *Client) Total(ctx context.Context, price, tax, adsCost, reduction float64) (product.Total, error) {
	var out product.Total
	_, err := c.do(ctx, http.MethodPost, "/totals", map[string]float64{
		"price": price, "tax": tax, "adsCost": adsCost, "reduction": reduction,
	}, &out)
	return out, err
}

func (c *Client) Ready(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/readyz", nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (Result, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{}, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return Result{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, ErrNotFound
	case resp.StatusCode >= 300:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Result{}, fmt.Errorf("%w: status=%d body=%s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	res := Result{Persisted: resp.Header.Get(catalog.HeaderPersisted) != "false"}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return res, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return res, err
	}
	return res, nil
}
