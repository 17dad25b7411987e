package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gridcast/internal/core/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(zaptest.NewLogger(t).Sugar())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	return h, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dialHub(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	h.Broadcast(domain.ChangeEvent{Type: domain.EventStreamAdded, StreamID: "s1"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got domain.ChangeEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, domain.EventStreamAdded, got.Type)
	assert.Equal(t, domain.StreamID("s1"), got.StreamID)
}

func TestHub_DisconnectDropsClient(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dialHub(t, srv)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_ConcurrentBroadcastsAndPings(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t).Sugar())
	h.pingInterval = 2 * time.Millisecond // force pings to race the broadcasts
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	var received atomic.Int64
	go func() {
		for {
			var ev domain.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	const writers, perWriter = 4, 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				h.Broadcast(domain.ChangeEvent{Type: domain.EventVolumeChanged})
			}
		}()
	}
	wg.Wait()

	// every write must land; a concurrent-write panic in the handler would
	// tear the connection down and drop the client
	assert.Eventually(t, func() bool {
		return received.Load() == writers*perWriter
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.ClientCount())
}
