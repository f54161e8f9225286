package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/app/orch"
	"github.com/dkeye/yumee/internal/config"
	"github.com/dkeye/yumee/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:           "test",
		Port:           5000,
		Secret:         "test-secret",
		ReadLimit:      64 * 1024,
		PingPeriod:     time.Second,
		PongWait:       5 * time.Second,
		WriteWait:      time.Second,
		SendBuffer:     64,
		AllowedOrigins: []string{"*"},
		CallRateLimit:  2,
		CallRateWindow: time.Minute,
		ICEServers: []config.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	reg := prometheus.NewRegistry()
	o := &orch.Orchestrator{
		Registry:   app.NewRegistry(),
		Calls:      app.NewCallTable(),
		Policy:     app.SimplePolicy{},
		Metrics:    metrics.New(reg),
		ICEServers: cfg.WebRTCICEServers(),
	}
	ts := httptest.NewServer(SetupRouter(ctx, cfg, o, reg))
	t.Cleanup(ts.Close)
	return ts, o
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	sid  string
}

func dial(t *testing.T, ts *httptest.Server) *wsClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/signal"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	cl := &wsClient{t: t, conn: c}
	ev := cl.next("connected")
	cl.sid, _ = ev["sid"].(string)
	require.NotEmpty(t, cl.sid)
	return cl
}

func (c *wsClient) send(v map[string]any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

// next reads frames until one of type typ arrives.
func (c *wsClient) next(typ string) map[string]any {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", typ)
		var m map[string]any
		require.NoError(c.t, json.Unmarshal(msg, &m))
		if m["type"] == typ {
			return m
		}
	}
}

func (c *wsClient) register(name string) {
	c.t.Helper()
	c.send(map[string]any{"type": "register", "name": name})
	ev := c.next("registered")
	require.Equal(c.t, true, ev["success"])
	require.Equal(c.t, name, ev["name"])
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var root map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&root))
	assert.Equal(t, "online", root["status"])
	assert.Equal(t, serviceName, root["service"])
	assert.EqualValues(t, 0, root["connected_users"])
	assert.EqualValues(t, 0, root["active_calls"])
	assert.NotEmpty(t, root["timestamp"])

	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 0, health["users_online"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "yumee_online_users")
}

func TestConnectedCarriesICEServers(t *testing.T) {
	ts, _ := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()

	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev struct {
		Type       string             `json:"type"`
		SID        string             `json:"sid"`
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"ice_servers"`
	}
	require.NoError(t, c.ReadJSON(&ev))
	assert.Equal(t, "connected", ev.Type)
	assert.NotEmpty(t, ev.SID)
	require.Len(t, ev.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, ev.ICEServers[0].URLs)
}

func TestSignalCallFlow(t *testing.T) {
	ts, o := newTestServer(t)
	alice := dial(t, ts)
	bob := dial(t, ts)
	alice.register("Alice")
	alice.next("user_list")
	bob.register("Bob")

	joined := alice.next("user_joined")
	assert.Equal(t, "Bob", joined["name"])
	assert.Equal(t, bob.sid, joined["sid"])

	alice.send(map[string]any{"type": "call_user", "target_sid": bob.sid})
	incoming := bob.next("incoming_call")
	assert.Equal(t, alice.sid, incoming["caller_sid"])
	assert.Equal(t, "Alice", incoming["caller_name"])
	roomID, _ := incoming["room_id"].(string)
	require.NotEmpty(t, roomID)
	initiated := alice.next("call_initiated")
	assert.Equal(t, roomID, initiated["room_id"])

	bob.send(map[string]any{"type": "accept_call", "room_id": roomID})
	assert.Equal(t, "Bob", alice.next("call_accepted")["accepter_name"])
	bob.next("call_accepted")

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=-\r\n"}
	alice.send(map[string]any{"type": "offer", "target_sid": bob.sid, "offer": offer})
	got := bob.next("offer")
	assert.Equal(t, alice.sid, got["sender_sid"])
	assert.Equal(t, "Alice", got["sender_name"])
	raw, err := json.Marshal(got["offer"])
	require.NoError(t, err)
	var relayed webrtc.SessionDescription
	require.NoError(t, json.Unmarshal(raw, &relayed))
	assert.Equal(t, offer, relayed)

	bob.send(map[string]any{"type": "ice_candidate", "target_sid": alice.sid, "candidate": map[string]any{"candidate": "candidate:1 1 udp 1 10.0.0.1 5000 typ host"}})
	cand := alice.next("ice_candidate")
	assert.Equal(t, bob.sid, cand["sender_sid"])
	assert.NotNil(t, cand["candidate"])

	users, calls := o.Stats()
	assert.Equal(t, 2, users)
	assert.Equal(t, 1, calls)

	require.NoError(t, bob.conn.Close())
	ended := alice.next("call_ended")
	assert.Equal(t, roomID, ended["room_id"])
	assert.Equal(t, "disconnected", ended["reason"])
	assert.Equal(t, "Bob", ended["ender_name"])
	assert.Equal(t, bob.sid, alice.next("user_left")["sid"])

	require.Eventually(t, func() bool {
		users, calls := o.Stats()
		return users == 1 && calls == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSignalCallErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	alice := dial(t, ts)

	alice.send(map[string]any{"type": "call_user", "target_sid": "nobody"})
	assert.Equal(t, "not_registered", alice.next("call_error")["code"])

	alice.register("Alice")
	alice.send(map[string]any{"type": "call_user", "target_sid": alice.sid})
	assert.Equal(t, "self_call", alice.next("call_error")["code"])

	// the limit is two calls per minute
	alice.send(map[string]any{"type": "call_user", "target_sid": "nobody"})
	assert.Equal(t, "rate_limited", alice.next("call_error")["code"])
}

func TestSignalChatAndPing(t *testing.T) {
	ts, _ := newTestServer(t)
	alice := dial(t, ts)
	bob := dial(t, ts)
	alice.register("Alice")
	bob.register("Bob")

	alice.send(map[string]any{"type": "send_message", "message": "  hello all  "})
	pub := bob.next("receive_message")
	assert.Equal(t, "hello all", pub["message"])
	assert.Equal(t, false, pub["private"])

	bob.send(map[string]any{"type": "send_message", "target_sid": alice.sid, "message": "psst"})
	priv := alice.next("receive_message")
	for priv["message"] != "psst" {
		priv = alice.next("receive_message")
	}
	assert.Equal(t, true, priv["private"])
	assert.Equal(t, "Bob", priv["sender_name"])
	echo := bob.next("receive_message")
	for echo["message"] != "psst" {
		echo = bob.next("receive_message")
	}
	assert.Equal(t, "Bob (to Alice)", echo["sender_name"])

	// malformed frames are dropped without closing the socket
	require.NoError(t, alice.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	alice.send(map[string]any{"type": "ping"})
	alice.next("pong")
}

func TestSignalRejectsForeignOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://yumee.example"}
	o := &orch.Orchestrator{Registry: app.NewRegistry(), Calls: app.NewCallTable(), Policy: app.SimplePolicy{}}
	ts := httptest.NewServer(SetupRouter(ctx, cfg, o, nil))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/signal"
	hdr := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
