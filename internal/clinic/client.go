package clinic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The API's Double fields expect bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Connection modes
const (
	ModeLAN      = "lan"
	ModeInternet = "internet"
)

// Client handles API requests
type Client struct {
	Config     *Config
	HTTPClient *http.Client
	Logger     *log.Logger
	ActiveURL  string
	Mode       string // "lan" or "internet"
}

// NewClient creates a new API client. A nil logger discards output.
func NewClient(config *Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: config.Timeout,
		},
		Logger:    logger,
		ActiveURL: config.APIURL,
		Mode:      ModeInternet,
	}
}

// DetectConnection tries the clinic network URL first, falls back to the
// public one.
func (c *Client) DetectConnection(ctx context.Context) {
	if c.Config.LANURL != "" {
		probe, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := probeURL(probe, c.HTTPClient, c.Config.LANURL); err == nil {
			c.Mode = ModeLAN
			c.ActiveURL = c.Config.LANURL
			c.Logger.Debug("using clinic network", "url", c.ActiveURL)
			return
		}
	}

	c.Mode = ModeInternet
	c.ActiveURL = c.Config.APIURL
	c.Logger.Debug("using public url", "url", c.ActiveURL)
}

// pingPath is a cheap read that every role may perform.
const pingPath = "/reportes/ordenes-estado"

func probeURL(ctx context.Context, hc *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+pingPath, nil)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Ping checks the active URL answers.
func (c *Client) Ping(ctx context.Context) error {
	return probeURL(ctx, c.HTTPClient, c.ActiveURL)
}

// ProbeAPI checks an arbitrary base URL, used by the setup wizard before a
// config exists.
func ProbeAPI(ctx context.Context, base string) error {
	return probeURL(ctx, &http.Client{Timeout: 10 * time.Second}, strings.TrimSuffix(base, "/"))
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, string, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	fullURL := c.ActiveURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, requestID, nil
}

// send performs the request and returns the body of a 2xx response, or a
// classified error.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, accept string) ([]byte, http.Header, error) {
	req, requestID, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn("request failed", "method", method, "path", path, "id", requestID, "err", err)
		return nil, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.Logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"took", time.Since(start).Round(time.Millisecond), "id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(path, resp.StatusCode, respBody)
		c.Logger.Warn("request rejected", "method", method, "path", path, "status", resp.StatusCode, "id", requestID, "err", apiErr)
		return nil, nil, apiErr
	}
	return respBody, resp.Header, nil
}

// Do makes a JSON request against path (relative to the API base) and
// decodes the answer into out when out is not nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	respBody, _, err := c.send(ctx, method, path, query, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &SchemaError{Endpoint: path, Violations: []string{err.Error()}}
	}
	return nil
}

// Raw makes a GET request and returns the undecoded JSON body.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, _, err := c.send(ctx, http.MethodGet, path, query, nil, "application/json")
	return body, err
}

// Blob is a binary download, returned as is.
type Blob struct {
	ContentType string
	Data        []byte
}

// Blob downloads a binary resource.
func (c *Client) Blob(ctx context.Context, path string) (*Blob, error) {
	body, header, err := c.send(ctx, http.MethodGet, path, nil, nil, "application/pdf, */*")
	if err != nil {
		return nil, err
	}
	return &Blob{ContentType: header.Get("Content-Type"), Data: body}, nil
}
