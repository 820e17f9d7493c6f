// Package httpclient issues JSON requests to external APIs over fasthttp.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const maxErrorBody = 256

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a pooled fasthttp client with a per-request timeout.
type Client struct {
	hc      *fasthttp.Client
	timeout time.Duration
}

// New creates a Client. A zero timeout means 10 seconds.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		hc: &fasthttp.Client{
			Name:                   "hazardboard",
			ReadTimeout:            timeout,
			WriteTimeout:           timeout,
			MaxConnsPerHost:        64,
			DisablePathNormalizing: true,
		},
		timeout: timeout,
	}
}

// GetJSON fetches url and decodes the JSON body into out.
// The request is bounded by the client timeout and by ctx's deadline.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.hc.DoDeadline(req, resp, deadline); err != nil {
		return err
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{StatusCode: code, Body: string(body)}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
