package connections

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	writeErr error
	closed   bool
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestManager(t *testing.T) {
	// Create a context with timeout for the entire test
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("basic add and remove connection", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)

		client := manager.AddConnection("session-a", &fakeConn{})
		assert.True(t, manager.HasConnection(client))
		assert.Equal(t, "session-a", client.SessionID())
		assert.Equal(t, 1, manager.SessionConnectionCount("session-a"))
		assert.Equal(t, 0, manager.SessionConnectionCount("session-b"))

		manager.RemoveConnection(client)
		assert.False(t, manager.HasConnection(client))
		assert.Equal(t, 0, manager.GetConnectionCount())
	})

	t.Run("concurrent connection operations", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		concurrentOps := 100
		var wg sync.WaitGroup
		wg.Add(concurrentOps)

		clients := make(chan *Client, concurrentOps)
		for i := 0; i < concurrentOps; i++ {
			go func() {
				defer wg.Done()
				select {
				case <-ctx.Done():
					return
				default:
					clients <- manager.AddConnection("session", &fakeConn{})
				}
			}()
		}

		// Wait with timeout
		waitCh := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-ctx.Done():
			t.Fatal("Test timed out")
		case <-waitCh:
		}
		close(clients)

		assert.Equal(t, concurrentOps, manager.GetConnectionCount())
		for client := range clients {
			manager.RemoveConnection(client)
		}
		assert.Equal(t, 0, manager.GetConnectionCount())
	})

	t.Run("memory leak check", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		iterations := 1000

		var m1, m2 runtime.MemStats
		runtime.GC()
		runtime.ReadMemStats(&m1)

		for i := 0; i < iterations; i++ {
			client := manager.AddConnection("session", &fakeConn{})
			manager.RemoveConnection(client)
		}

		runtime.GC()
		time.Sleep(100 * time.Millisecond) // Allow time for GC to complete
		runtime.ReadMemStats(&m2)

		var memoryGrowth int64
		if m2.HeapAlloc >= m1.HeapAlloc {
			memoryGrowth = int64(m2.HeapAlloc - m1.HeapAlloc)
		} else {
			memoryGrowth = -int64(m1.HeapAlloc - m2.HeapAlloc)
		}

		maxAcceptableGrowth := int64(iterations * 1024) // 1KB per iteration
		if memoryGrowth > maxAcceptableGrowth {
			t.Errorf("Possible memory leak detected: memory growth of %d bytes exceeds threshold of %d bytes",
				memoryGrowth, maxAcceptableGrowth)
		}
	})

	t.Run("timeout configuration", func(t *testing.T) {
		customTimeouts := TimeoutConfig{
			PongWait:   1 * time.Minute,
			PingPeriod: 54 * time.Second,
			WriteWait:  20 * time.Second,
		}

		manager := NewManager(customTimeouts)
		assert.Equal(t, customTimeouts, manager.GetTimeouts())

		newTimeouts := TimeoutConfig{
			PongWait:   2 * time.Minute,
			PingPeriod: 108 * time.Second,
			WriteWait:  30 * time.Second,
		}
		manager.SetTimeouts(newTimeouts)
		assert.Equal(t, newTimeouts, manager.GetTimeouts())
	})
}

func TestBroadcast(t *testing.T) {
	t.Run("delivers to the session only", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
		manager.AddConnection("a", a1)
		manager.AddConnection("a", a2)
		manager.AddConnection("b", b)

		delivered := manager.Broadcast("a", 1, map[string]int{"version": 1})

		assert.Equal(t, 2, delivered)
		assert.Equal(t, 1, a1.count())
		assert.Equal(t, 1, a2.count())
		assert.Equal(t, 0, b.count())
		assert.JSONEq(t, `{"version":1}`, string(a1.messages[0]))
	})

	t.Run("drops stale versions", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		conn := &fakeConn{}
		client := manager.AddConnection("a", conn)

		sent, err := manager.Send(client, 3, "three")
		require.NoError(t, err)
		assert.True(t, sent)

		assert.Equal(t, 0, manager.Broadcast("a", 2, "two"))
		assert.Equal(t, 0, manager.Broadcast("a", 3, "three again"))
		assert.Equal(t, 1, manager.Broadcast("a", 4, "four"))
		assert.Equal(t, 2, conn.count())
	})

	t.Run("removes failed connections", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		broken := &fakeConn{writeErr: errors.New("broken pipe")}
		client := manager.AddConnection("a", broken)

		assert.Equal(t, 0, manager.Broadcast("a", 1, "x"))
		assert.False(t, manager.HasConnection(client))
		assert.True(t, broken.closed)
	})

	t.Run("unencodable values", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		client := manager.AddConnection("a", &fakeConn{})

		_, err := manager.Send(client, 1, make(chan int))
		assert.Error(t, err)
	})
}

func TestBroadcastOverWebsocket(t *testing.T) {
	manager := NewManager(DefaultTimeouts)
	upgrader := websocket.Upgrader{}
	registered := make(chan *Client, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		registered <- manager.AddConnection("session", conn)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var client *Client
	select {
	case client = <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not registered")
	}
	defer manager.RemoveConnection(client)

	assert.Equal(t, 1, manager.Broadcast("session", 7, map[string]interface{}{"type": "snapshot", "version": 7}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "snapshot", got["type"])
	assert.Equal(t, float64(7), got["version"])
}
