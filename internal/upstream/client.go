package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/listing"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 2048

// StatusError is returned when the upstream API answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: upstream returned status %d", e.Method, e.URL, e.Code)
}

// Client talks to the remote SETA REST API.
type Client struct {
	baseURL string
	headers map[string]string
	http    *http.Client
}

// NewClient creates a client for the configured upstream API.
func NewClient(cfg *config.UpstreamConfig, log *zap.SugaredLogger) *Client {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warnf("invalid proxy URL %q: %v; upstream requests will not use a proxy", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// FetchCollection GETs path and returns the records it lists.
func (c *Client) FetchCollection(ctx context.Context, path string) ([]listing.Record, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeRecords(body)
}

// Create POSTs a new record to the collection at path and returns the
// upstream representation of it when one is sent back.
func (c *Client) Create(ctx context.Context, path string, rec listing.Record) (listing.Record, error) {
	body, err := c.do(ctx, http.MethodPost, path, rec)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Update PUTs rec over the record id of the collection at path.
func (c *Client) Update(ctx context.Context, path, id string, rec listing.Record) (listing.Record, error) {
	body, err := c.do(ctx, http.MethodPut, itemPath(path, id), rec)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Delete removes the record id of the collection at path.
func (c *Client) Delete(ctx context.Context, path, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(path, id), nil)
	return err
}

func itemPath(path, id string) string {
	return strings.TrimRight(path, "/") + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
