package biz

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/httpclient"
)

// Webhook constants.
const (
	WebhookEventHeader    = "X-Webhook-Event"
	WebhookEventCompleted = "document.processing.completed"
	DefaultWebhookTimeout = 30 * time.Second
)

// WebhookPayload is the JSON body POSTed to a tenant callback URL.
type WebhookPayload struct {
	JobID      string          `json:"job_id"`
	DocumentID string          `json:"document_id"`
	Status     model.JobStatus `json:"status"`
	Timestamp  string          `json:"timestamp"`
	Data       map[string]any  `json:"data"`
}

// Notifier delivers job outcomes to tenants.
type Notifier interface {
	Notify(ctx context.Context, url string, payload *WebhookPayload) error
}

// WebhookNotifier POSTs payloads once, without retries.
type WebhookNotifier struct {
	client *httpclient.Client
}

// NewWebhookNotifier 创建回调通知器。timeout 为单次投递的超时时间。
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookNotifier{client: httpclient.NewClient(timeout, 0)}
}

// Notify delivers payload to url. Any non-2xx status is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, url string, payload *WebhookPayload) error {
	ctx, span := tracer.Start(ctx, "webhook.Notify", trace.WithAttributes(
		attribute.String("job_id", payload.JobID),
		attribute.String("status", string(payload.Status)),
	))
	defer span.End()

	status, err := n.client.PostJSON(ctx, url, map[string]string{
		WebhookEventHeader: WebhookEventCompleted,
	}, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver webhook")
		return fmt.Errorf("deliver webhook: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status >= 300 {
		span.SetStatus(codes.Error, "non-2xx response")
		return fmt.Errorf("webhook responded with status %d", status)
	}
	return nil
}

func newWebhookPayload(jobID, documentID string, status model.JobStatus, at time.Time, data map[string]any) *WebhookPayload {
	return &WebhookPayload{
		JobID:      jobID,
		DocumentID: documentID,
		Status:     status,
		Timestamp:  at.UTC().Format(time.RFC3339),
		Data:       data,
	}
}
