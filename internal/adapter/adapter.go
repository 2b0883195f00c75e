// Package adapter implements the external-resource adapters behind each tool.
// Every adapter exposes the same typed operation — fetch one resource by
// positive integer id — and folds transport failures into a uniform result
// status instead of returning errors.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Status classifies a fetch outcome. A missing resource is an expected
// business outcome, not a defect, so it gets its own status distinct from
// transport failure.
type Status string

const (
	StatusOK           Status = "ok"
	StatusNotFound     Status = "not_found"
	StatusAdapterError Status = "adapter_error"
)

// Result is the immutable outcome of one adapter invocation. Payload holds
// the normalized upstream representation when Status is ok; RawError carries
// a short diagnostic when Status is adapter_error.
type Result struct {
	ToolName string          `json:"tool"`
	Status   Status          `json:"status"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	RawError string          `json:"raw_error,omitempty"`
}

// Fetcher is the uniform adapter contract. One outbound call per invocation,
// no retries and no caching — retry policy belongs to layers above.
type Fetcher interface {
	Fetch(ctx context.Context, id int) Result
}

// errResult builds an adapter_error result without touching the network.
func errResult(tool, diag string) Result {
	return Result{ToolName: tool, Status: StatusAdapterError, RawError: diag}
}

// doGet performs one GET and classifies the response. 404 maps to not_found;
// any other non-2xx status, timeout or connection failure maps to
// adapter_error. The body is returned verbatim as the payload on success.
func doGet(ctx context.Context, client *http.Client, tool, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errResult(tool, fmt.Sprintf("build request: %v", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return errResult(tool, fmt.Sprintf("upstream unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{ToolName: tool, Status: StatusNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errResult(tool, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errResult(tool, fmt.Sprintf("decode response: %v", err))
	}
	return Result{ToolName: tool, Status: StatusOK, Payload: body}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
