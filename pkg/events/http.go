package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

const (
	headerEventType   = "X-Event-Type"
	headerIdempotency = "Idempotency-Key"
	maxSnippetBytes   = 512
)

// webhookSink posts each event as JSON to a configured endpoint.
type webhookSink struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    logger.Logger
}

func newHTTPSink(_ context.Context, cfg SinkConfig, log logger.Logger) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.HTTP.Headers)

	return &webhookSink{
		id:     cfg.ID,
		method: cfg.HTTP.Method,
		url:    cfg.HTTP.URL,
		client: client,
		log:    logger.Ensure(log),
	}, nil
}

func (h *webhookSink) ID() string   { return h.id }
func (h *webhookSink) Type() string { return TypeHTTP }

// Publish delivers evt. The event type and a delivery key travel as headers so receivers
// can route and deduplicate without parsing the body.
func (h *webhookSink) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(headerEventType, TypePostPublished).
		SetHeader(headerIdempotency, evt.DeliveryKey()).
		SetBody(evt).
		Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", h.id, err)
	}

	switch {
	case resp.StatusCode() == http.StatusGone:
		h.log.WarnObj("webhook endpoint is gone; remove or disable this sink", "event_webhook_gone", map[string]any{
			"sink_id": h.id,
			"url":     h.url,
		})
		return fmt.Errorf("webhook %s: endpoint gone (410)", h.id)
	case resp.IsError():
		return fmt.Errorf("webhook %s: status %d: %s", h.id, resp.StatusCode(), bodySnippet(resp.Body()))
	}

	h.log.DebugObj("webhook delivered event", "event_webhook_delivery", map[string]any{
		"sink_id":      h.id,
		"status":       resp.StatusCode(),
		"delivery_key": evt.DeliveryKey(),
	})
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}
