// Package generation calls the AI email generation backend. Failures
// never touch editor state; the caller surfaces them and keeps the
// current source.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/canvasmail/backend/internal/infrastructure/resilience"
)

// Request is the generation payload
type Request struct {
	Prompt   string `json:"prompt"`
	VendorID string `json:"vendor_id"`
}

// Response is the generation result
type Response struct {
	HTML    string `json:"html"`
	Subject string `json:"subject,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client wraps the generation backend with retries and a circuit
// breaker
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
}

// New creates a production-ready generation client
func New(baseURL string, timeout time.Duration) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetTransport(retryClient.HTTPClient.Transport).
		SetHeader("User-Agent", "mailcanvas-backend/1.0")

	breaker := resilience.New("generation", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{http: httpClient, breaker: breaker}
}

// Generate produces email HTML for a prompt. The returned HTML is the
// new source fragment for the editor.
func (c *Client) Generate(ctx context.Context, prompt, vendorID string) (*Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var out Response
		var apiErr errorBody

		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(Request{Prompt: prompt, VendorID: vendorID}).
			SetResult(&out).
			SetError(&apiErr).
			Post("/v1/emails/generate")
		if err != nil {
			return nil, fmt.Errorf("generation request: %w", err)
		}
		if resp.IsError() {
			if apiErr.Error != "" {
				return nil, fmt.Errorf("generation failed: %s", apiErr.Error)
			}
			return nil, fmt.Errorf("generation failed: status %d", resp.StatusCode())
		}
		if out.HTML == "" {
			return nil, fmt.Errorf("generation returned empty html")
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Response), nil
}
