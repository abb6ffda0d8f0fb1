package notify

import (
	"context"
	"fmt"
	"time"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
	xhttp "AccelStream/pkg/http"
)

// AnomalyEvent is the JSON body posted for each anomalous sample.
type AnomalyEvent struct {
	DeviceID  string    `json:"device_id,omitempty"`
	Stream    string    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Smoothed  float64   `json:"smoothed"`
	Quality   float64   `json:"quality_score"`
}

// WebhookNotifier posts anomaly events to an HTTP endpoint.
type WebhookNotifier struct {
	url      string
	deviceID string
	client   *xhttp.Client
}

var _ domrepo.AnomalyNotifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier returns nil when url is empty.
func NewWebhookNotifier(url, deviceID string, timeout time.Duration, retries int) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:      url,
		deviceID: deviceID,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRetries(retries, 100*time.Millisecond)),
	}
}

func (n *WebhookNotifier) NotifyAnomaly(ctx context.Context, stream string, s models.Sample) error {
	ev := AnomalyEvent{
		DeviceID:  n.deviceID,
		Stream:    stream,
		Timestamp: s.Timestamp,
		Value:     s.RawValue,
		Smoothed:  s.SmoothedValue,
		Quality:   s.QualityScore,
	}
	if err := n.client.PostJSON(ctx, n.url, ev, nil); err != nil {
		return fmt.Errorf("post anomaly webhook: %w", err)
	}
	return nil
}
