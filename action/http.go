package action

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP posts a form to a webhook.
type HTTP struct {
	url        string
	payload    url.Values
	httpClient *http.Client
}

type HTTPOption func(*HTTP)

// WithPayload sets the form fields posted on every Fire.
func WithPayload(payload url.Values) HTTPOption {
	return func(h *HTTP) {
		h.payload = payload
	}
}

// WithInsecureSkipVerify disables TLS certificate checks, for gate
// controllers with self-signed certificates.
func WithInsecureSkipVerify() HTTPOption {
	return func(h *HTTP) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		h.httpClient.Transport = transport
	}
}

func NewHTTP(target string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:     target,
		payload: url.Values{},
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Fire(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(h.payload.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("action returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
