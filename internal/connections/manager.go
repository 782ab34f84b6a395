package connections

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Conn is the part of *websocket.Conn the manager writes to
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one registered connection of a session. Writes are serialised and
// versions older than the last one delivered are dropped.
type Client struct {
	sessionID string
	conn      Conn

	mu      sync.Mutex
	version uint64
	sent    bool
}

func (c *Client) SessionID() string {
	return c.sessionID
}

// Manager handles WebSocket connection lifecycle, grouped by session
type Manager struct {
	connections sync.Map // *Client -> struct{}

	mu       sync.RWMutex
	timeouts TimeoutConfig
}

// NewManager creates a new connection manager with the specified timeouts
func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		timeouts: timeouts,
	}
}

// AddConnection registers a connection for sessionID
func (m *Manager) AddConnection(sessionID string, conn Conn) *Client {
	client := &Client{sessionID: sessionID, conn: conn}
	m.connections.Store(client, struct{}{})
	return client
}

// RemoveConnection unregisters a connection. It does not close it.
func (m *Manager) RemoveConnection(client *Client) {
	m.connections.Delete(client)
}

// GetConnectionCount returns the current number of active connections
func (m *Manager) GetConnectionCount() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// SessionConnectionCount returns the number of connections open for sessionID
func (m *Manager) SessionConnectionCount(sessionID string) int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		if key.(*Client).sessionID == sessionID {
			count++
		}
		return true
	})
	return count
}

// HasConnection checks if a specific connection exists
func (m *Manager) HasConnection(client *Client) bool {
	_, exists := m.connections.Load(client)
	return exists
}

// GetTimeouts returns the current timeout configuration
func (m *Manager) GetTimeouts() TimeoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeouts
}

// SetTimeouts updates the timeout configuration
func (m *Manager) SetTimeouts(timeouts TimeoutConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = timeouts
}

// Send writes v as a JSON text message to client unless a newer version was
// already delivered. It reports whether the message was written.
func (m *Manager) Send(client *Client, version uint64, v interface{}) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to encode message: %w", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.sent && version <= client.version {
		return false, nil
	}

	if err := client.conn.SetWriteDeadline(time.Now().Add(m.GetTimeouts().WriteWait)); err != nil {
		return false, err
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false, err
	}

	client.version = version
	client.sent = true
	return true, nil
}

// Broadcast sends v to every connection of sessionID. Connections that fail to
// accept the write are removed and closed. It returns the number of deliveries.
func (m *Manager) Broadcast(sessionID string, version uint64, v interface{}) int {
	delivered := 0
	m.connections.Range(func(key, value interface{}) bool {
		client := key.(*Client)
		if client.sessionID != sessionID {
			return true
		}

		ok, err := m.Send(client, version, v)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Dropping websocket connection after failed write")
			m.RemoveConnection(client)
			client.conn.Close()
			return true
		}
		if ok {
			delivered++
		}
		return true
	})
	return delivered
}
