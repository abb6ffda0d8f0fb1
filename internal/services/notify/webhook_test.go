package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
)

func TestWebhookNotifierPostsEvent(t *testing.T) {
	got := make(chan AnomalyEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev AnomalyEvent
		_ = json.NewDecoder(r.Body).Decode(&ev)
		got <- ev
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "dev-1", time.Second, 0)
	ts := time.Unix(1700000000, 0).UTC()
	err := n.NotifyAnomaly(context.Background(), "y_axis", models.Sample{
		Timestamp: ts, RawValue: 9, SmoothedValue: 2, IsAnomaly: true, QualityScore: models.QualityAnomalous,
	})
	require.NoError(t, err)

	ev := <-got
	assert.Equal(t, "dev-1", ev.DeviceID)
	assert.Equal(t, "y_axis", ev.Stream)
	assert.Equal(t, 9.0, ev.Value)
	assert.Equal(t, 0.5, ev.Quality)
	assert.True(t, ev.Timestamp.Equal(ts))
}

func TestWebhookNotifierDisabled(t *testing.T) {
	assert.Nil(t, NewWebhookNotifier("", "dev", time.Second, 1))
}

func TestWebhookNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "", time.Second, 1)
	assert.Error(t, n.NotifyAnomaly(context.Background(), "x_axis", models.Sample{}))
}
