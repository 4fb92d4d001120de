package shortener

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// Known shortener services and their API endpoints. Unknown names fall back
// to the bitly endpoint, matching the behavior admins already rely on.
var endpoints = map[string]string{
	"gplinks":   "https://api.gplinks.in/shorten",
	"modijiurl": "https://api.modijiurl.com/shorten",
	"bitly":     "https://api-ssl.bitly.com/v4/shorten",
}

const defaultEndpoint = "https://api-ssl.bitly.com/v4/shorten"

// Endpoint resolves a shortener name to its API endpoint.
func Endpoint(name string) string {
	if ep, ok := endpoints[name]; ok {
		return ep
	}
	return defaultEndpoint
}

// Client shortens URLs through a configured service. Shorten may fail;
// callers always keep the unshortened URL as the fallback.
type Client struct {
	name     string
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(name, apiKey string) *Client {
	return &Client{
		name:     name,
		endpoint: Endpoint(name),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithEndpoint is used by tests to point at a local server.
func NewClientWithEndpoint(name, apiKey, endpoint string) *Client {
	c := NewClient(name, apiKey)
	c.endpoint = endpoint
	return c
}

type shortenRequest struct {
	LongURL string `json:"long_url"`
}

type shortenResponse struct {
	Link string `json:"link"`
}

// Shorten asks the service for a short link. The error return exists so
// callers can log the failure; they should use the original URL regardless.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	if c.apiKey == "" {
		return longURL, fmt.Errorf("no API key configured for shortener %s", c.name)
	}

	body, err := json.Marshal(shortenRequest{LongURL: longURL})
	if err != nil {
		return longURL, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return longURL, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return longURL, fmt.Errorf("shortener request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return longURL, fmt.Errorf("shortener returned status %d", resp.StatusCode)
	}

	var parsed shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return longURL, fmt.Errorf("failed to decode shortener response: %w", err)
	}
	if parsed.Link == "" {
		return longURL, fmt.Errorf("shortener %s returned an empty link", c.name)
	}

	logger.Debug("Shortened link", logger.Fields{
		"shortener": c.name,
	})
	return parsed.Link, nil
}
