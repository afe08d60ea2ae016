package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every outbound rail call.
const DefaultTimeout = 30 * time.Second

// Client is the shared HTTP transport for rail implementations.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logger,
	}
}

// PostJSON sends a JSON body and returns the structured result. Transport
// failures come back as a zero-status unsuccessful Result together with
// the error; non-2xx responses are an unsuccessful Result with no error,
// so callers branch rather than unwind.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Per-call id: rails echo it back, which ties their support logs to ours.
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("rail request failed",
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &Result{}, fmt.Errorf("rail request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{HTTPStatus: resp.StatusCode}, fmt.Errorf("failed to read response: %w", err)
	}

	res := &Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		HTTPStatus: resp.StatusCode,
		Body:       respBody,
	}
	if !res.Success {
		c.logger.Warn("rail returned non-success status",
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
	}
	return res, nil
}
