// Package marketing calls the campaign persistence backend: draft
// save, campaign send, and test delivery. All operations take the
// resolved HTML; editor state stays local so a failed call never loses
// edits.
package marketing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Campaign carries the content and metadata persisted with each
// operation
type Campaign struct {
	VendorID   string   `json:"vendor_id"`
	Subject    string   `json:"subject"`
	HTML       string   `json:"html"`
	SegmentIDs []string `json:"segment_ids,omitempty"`
}

// Draft is a persisted draft reference
type Draft struct {
	ID string `json:"id"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the marketing backend
type Client struct {
	http *resty.Client
}

// New creates a marketing client
func New(baseURL string, timeout time.Duration) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetTransport(retryClient.HTTPClient.Transport).
		SetHeader("User-Agent", "mailcanvas-backend/1.0")

	return &Client{http: httpClient}
}

// CreateDraft persists a new draft and returns its ID
func (c *Client) CreateDraft(ctx context.Context, campaign Campaign) (*Draft, error) {
	var draft Draft
	if err := c.post(ctx, "/v1/campaigns/drafts", campaign, &draft); err != nil {
		return nil, err
	}
	if draft.ID == "" {
		return nil, fmt.Errorf("draft create returned empty id")
	}
	return &draft, nil
}

// UpdateDraft overwrites an existing draft
func (c *Client) UpdateDraft(ctx context.Context, draftID string, campaign Campaign) error {
	var out struct{}
	return c.put(ctx, "/v1/campaigns/drafts/"+draftID, campaign, &out)
}

// SendCampaign dispatches the campaign to its audience
func (c *Client) SendCampaign(ctx context.Context, campaign Campaign) error {
	var out struct{}
	return c.post(ctx, "/v1/campaigns/send", campaign, &out)
}

// SendTestEmail delivers the campaign to a single test recipient
func (c *Client) SendTestEmail(ctx context.Context, campaign Campaign, recipient string) error {
	payload := struct {
		Campaign
		Recipient string `json:"recipient"`
	}{Campaign: campaign, Recipient: recipient}

	var out struct{}
	return c.post(ctx, "/v1/campaigns/test-send", payload, &out)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	return check(path, resp, err, apiErr)
}

func (c *Client) put(ctx context.Context, path string, body, result interface{}) error {
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Put(path)
	return check(path, resp, err, apiErr)
}

func check(path string, resp *resty.Response, err error, apiErr errorBody) error {
	if err != nil {
		return fmt.Errorf("marketing request %s: %w", path, err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("marketing request %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("marketing request %s: status %d", path, resp.StatusCode())
	}
	return nil
}
