package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-resty/resty/v2"

	appctx "github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxResponseSize caps response bodies read from collaborators (10MB).
	MaxResponseSize = 10 * 1024 * 1024
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
}

// Client is a JSON client for an upstream service with request-id and trace propagation.
type Client struct {
	rc     *resty.Client
	logger ectologger.Logger
}

func NewClient(cfg Config, logger ectologger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		rc:     rc,
		logger: logger,
	}
}

type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// PostJSON posts body to path and decodes a 2xx response into result. Non-2xx responses
// return a *StatusError carrying the upstream status and body.
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, "HTTPClient.PostJSON")
	defer span.End()

	req := c.rc.R().
		SetContext(ctx).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	if requestID := appctx.GetRequestID(ctx); requestID != "" {
		req.SetHeader("X-Request-Id", requestID)
	}
	if traceparent := tracing.TraceParent(ctx); traceparent != "" {
		req.SetHeader("traceparent", traceparent)
	}

	start := time.Now()
	resp, err := req.Post(path)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordHTTPRequest(http.MethodPost, 0, duration.Seconds())
		tracing.RecordError(span, err)
		c.logger.WithContext(ctx).WithError(err).Errorf("HTTP request failed: POST %s", path)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	metrics.RecordHTTPRequest(http.MethodPost, resp.StatusCode(), duration.Seconds())
	c.logger.WithContext(ctx).Debugf("HTTP POST %s -> %d (%s)", path, resp.StatusCode(), duration)

	out := &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Duration:   duration,
	}
	if len(out.Body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(out.Body), MaxResponseSize)
	}
	if resp.IsError() {
		return out, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return out, nil
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}
