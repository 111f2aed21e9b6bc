package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// PostJSON encodes body as JSON, posts it to url and decodes a successful
// response into result. Non-2xx responses return a *StatusError.
func (c *Client) PostJSON(ctx context.Context, url string, body, result any) (err error) {
	ctx, span := c.tracer.Start(ctx, "http.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("client", c.name),
			attribute.String("http.url", url),
		),
	)
	start := time.Now()
	defer func() {
		c.finish(ctx, span, start, err)
		span.End()
	}()

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode, Body: payload}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) finish(ctx context.Context, span trace.Span, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var netErr net.Error
		switch {
		case errors.Is(err, context.Canceled):
			outcome = "cancelled"
		case errors.As(err, &netErr) && netErr.Timeout():
			outcome = "timeout"
		}
	}

	attrs := metric.WithAttributes(
		attribute.String("client", c.name),
		attribute.String("outcome", outcome),
	)
	c.requests.Add(ctx, 1, attrs)
	c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}
