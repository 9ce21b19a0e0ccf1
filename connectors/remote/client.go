// Package remote downloads the task CSV from an HTTP endpoint, such as the export URL
// of a project tracker, with optional bearer or OAuth2 client-credentials auth.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	dc "task-dashboard/domain/config"
)

const (
	acceptCSV      = "text/csv, text/plain;q=0.9, */*;q=0.1"
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// Client is a thin wrapper over http.Client with token auth.
// Use New or NewFromConfig to construct it.
type Client struct {
	c        *http.Client
	token    string
	maxBytes int64
}

// ErrTooLarge is returned when a response body exceeds the download limit.
var ErrTooLarge = errors.New("response body too large")

// New returns a client sending token as a bearer token when non-empty.
func New(c *http.Client, token string) *Client {
	if c == nil {
		c = &http.Client{Timeout: requestTimeout}
	}
	return &Client{c: c, token: token, maxBytes: maxBodyBytes}
}

// NewFromConfig builds a client from the remote section of the config. When an OAuth2
// client id is configured the returned client fetches and refreshes tokens itself.
func NewFromConfig(ctx context.Context, cfg dc.Remote) *Client {
	if cfg.OAuth2.ClientID == "" {
		return New(nil, cfg.Token)
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.OAuth2.ClientID,
		ClientSecret: cfg.OAuth2.ClientSecret,
		TokenURL:     cfg.OAuth2.TokenURL,
		Scopes:       cfg.OAuth2.Scopes,
	}
	hc := cc.Client(ctx)
	hc.Timeout = requestTimeout
	slog.Info("remote.oauth2.enabled", "token_url", cfg.OAuth2.TokenURL)
	return New(hc, "")
}

func (rc *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptCSV)
	if rc.token != "" {
		req.Header.Set("Authorization", "Bearer "+rc.token)
	}
	return req, nil
}

// Fetch downloads the body at url. A 404 wraps os.ErrNotExist; any other non-2xx
// status is an error carrying the response body, as is a body over the size limit.
func (rc *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := rc.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	resp, err := rc.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_ = drain(resp.Body)
		return nil, fmt.Errorf("GET %s: %w", url, os.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("GET %s returned %d: %s", url, resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, rc.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > rc.maxBytes {
		return nil, fmt.Errorf("GET %s: %w (limit %d bytes)", url, ErrTooLarge, rc.maxBytes)
	}
	slog.Debug("remote.fetch.done", "url", url, "bytes", len(b))
	return b, nil
}

func drain(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}
