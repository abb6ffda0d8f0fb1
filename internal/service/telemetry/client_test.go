package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/pkg/logger"
)

func TestDecode(t *testing.T) {
	arrival := time.Unix(1700000000, 0)
	c := New("dev", "", "ws://unused", logger.Nop(), WithNow(func() time.Time { return arrival }))

	got := c.decode([]byte(`{"type":"property","name":"px","value":0.5,"t":1700000000123}`))
	require.Len(t, got, 1)
	assert.Equal(t, models.AxisX, got[0].Axis)
	assert.Equal(t, 0.5, got[0].Value)
	assert.Equal(t, time.UnixMilli(1700000000123), got[0].Timestamp)

	got = c.decode([]byte(`{"type":"property","data":[{"name":"py","value":1},{"name":"temp","value":20},{"name":"pz"}]}`))
	require.Len(t, got, 1)
	assert.Equal(t, models.AxisY, got[0].Axis)
	assert.Equal(t, arrival, got[0].Timestamp)

	assert.Empty(t, c.decode([]byte(`{"type":"heartbeat"}`)))
	assert.Empty(t, c.decode([]byte(`not json`)))
}

func TestClientStreamsReadings(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 3)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("device_id") != "dev-1" {
			http.Error(w, "unknown device", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			var msg map[string]string
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			subscribed <- msg["property"]
		}
		for _, f := range []string{
			`{"type":"property","name":"px","value":1,"t":1000}`,
			`{"type":"property","name":"py","value":2,"t":1001}`,
			`{"type":"property","name":"pz","value":3,"t":1002}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// keep the connection open until the client leaves
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New("dev-1", "s3cret", wsURL, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx))
	assert.True(t, c.IsConnected())

	readings, _ := c.Read(ctx)
	var axes []models.Axis
	for len(axes) < 3 {
		select {
		case r := <-readings:
			axes = append(axes, r.Axis)
		case <-ctx.Done():
			t.Fatal("timed out waiting for readings")
		}
	}
	assert.Equal(t, []models.Axis{models.AxisX, models.AxisY, models.AxisZ}, axes)
	assert.Len(t, subscribed, 3)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}
