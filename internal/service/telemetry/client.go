package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AccelStream/internal/domain/models"
	drepo "AccelStream/internal/domain/repository"
	"AccelStream/pkg/logger"
)

// Client implements a TelemetryStream over the device cloud WebSocket feed.
type Client struct {
	deviceID       string
	secret         string
	websocketURL   string
	props          map[string]models.Axis
	reconnectDelay time.Duration
	pingInterval   time.Duration
	bufferSize     int
	now            func() time.Time
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	ready     chan struct{} // signalled when a new connection is up
}

var _ drepo.TelemetryStream = (*Client)(nil)

type Option func(*Client)

// WithProperties overrides the property-to-axis mapping.
func WithProperties(props map[string]models.Axis) Option {
	return func(c *Client) {
		if len(props) > 0 {
			c.props = props
		}
	}
}

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithBufferSize sets the reading channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithNow overrides the arrival-time source.
func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a device cloud stream client.
func New(deviceID, secret, websocketURL string, lgr *logger.Logger, opts ...Option) *Client {
	c := &Client{
		deviceID:       deviceID,
		secret:         secret,
		websocketURL:   websocketURL,
		props:          drepo.DefaultAxisProperties(),
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		bufferSize:     1024,
		now:            time.Now,
		log:            lgr,
		ready:          make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.websocketURL)
	if err != nil {
		return "", fmt.Errorf("telemetry url: %w", err)
	}
	q := u.Query()
	q.Set("device_id", c.deviceID)
	if c.secret != "" {
		q.Set("secret", c.secret)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u, err := c.endpoint()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("telemetry connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
	c.log.Info("telemetry: connected", logger.String("device_id", c.deviceID))
	return nil
}

// Subscribe asks for every mapped property.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("telemetry not connected")
	}
	for prop := range c.props {
		msg := map[string]string{"type": "subscribe", "property": prop}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", prop, err)
		}
		c.log.Debug("telemetry: subscribed", logger.String("property", prop))
	}
	return nil
}

type propertyUpdate struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	T     int64    `json:"t"` // epoch ms, optional
}

type frame struct {
	Type string `json:"type"`
	propertyUpdate
	Data []propertyUpdate `json:"data"`
}

// decode turns one frame into readings. Frames that are not property
// updates, or that name unmapped properties, yield nothing.
func (c *Client) decode(b []byte) []*models.AxisReading {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil || f.Type != "property" {
		return nil
	}
	updates := f.Data
	if f.Name != "" {
		updates = append(updates, f.propertyUpdate)
	}

	arrived := c.now()
	out := make([]*models.AxisReading, 0, len(updates))
	for _, u := range updates {
		axis, ok := drepo.NormalizeAxis(u.Name, c.props)
		if !ok || u.Value == nil {
			continue
		}
		ts := arrived
		if u.T > 0 {
			ts = time.UnixMilli(u.T)
		}
		out = append(out, &models.AxisReading{Axis: axis, Value: *u.Value, Timestamp: ts})
	}
	return out
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Read streams readings and errors until ctx is done. After a read error the
// loop waits for Reconnect to bring up a new connection.
func (c *Client) Read(ctx context.Context) (<-chan *models.AxisReading, <-chan error) {
	readings := make(chan *models.AxisReading, c.bufferSize)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)

	go func() {
		defer close(readings)
		defer close(errs)
		for {
			if ctx.Err() != nil {
				return
			}
			conn := c.currentConn()
			if conn == nil {
				if !c.waitReady(ctx) {
					return
				}
				continue
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.markDown(conn)
				select {
				case errs <- fmt.Errorf("telemetry read: %w", err):
				default:
				}
				if !c.waitReady(ctx) {
					return
				}
				continue
			}
			for _, r := range c.decode(b) {
				select {
				case readings <- r:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return readings, errs
}

func (c *Client) waitReady(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.ready:
		return true
	}
}

func (c *Client) markDown(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.connected = false
		c.conn = nil
		_ = conn.Close()
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			c.mu.Unlock()
		}
	}
}

// Reconnect closes the current connection, waits the reconnect delay and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
