package orch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/dkeye/yumee/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// recConn records every frame it is given.
type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrClosed
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

func (c *recConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *recConn) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range c.events(t) {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

// rawOfType returns frames of typ decoded one level deep, keeping field
// values as raw JSON.
func (c *recConn) rawOfType(t *testing.T, typ string) []map[string]json.RawMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]json.RawMessage
	for _, f := range c.frames {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(f, &m))
		if string(m["type"]) == `"`+typ+`"` {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	o     *Orchestrator
	reg   *prometheus.Registry
	conns map[domain.ConnID]*recConn
	tick  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		reg:   prometheus.NewRegistry(),
		conns: make(map[domain.ConnID]*recConn),
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.o = &Orchestrator{
		Registry: app.NewRegistry(),
		Calls:    app.NewCallTable(),
		Policy:   app.SimplePolicy{},
		Metrics:  metrics.New(h.reg),
		// Called with mu held only.
		Now: func() time.Time {
			h.tick++
			return base.Add(time.Duration(h.tick) * time.Millisecond)
		},
	}
	return h
}

func (h *harness) connect(id domain.ConnID) *recConn {
	c := &recConn{}
	h.conns[id] = c
	h.o.Connect(id, c, nil)
	return c
}

func (h *harness) register(t *testing.T, id domain.ConnID, name string) *recConn {
	t.Helper()
	c := h.connect(id)
	_, err := h.o.Register(id, name)
	require.NoError(t, err)
	return c
}

func (h *harness) resetAll() {
	for _, c := range h.conns {
		c.reset()
	}
}

func userNames(t *testing.T, ev map[string]any) []string {
	t.Helper()
	users, ok := ev["users"].([]any)
	require.True(t, ok, "users field: %v", ev)
	var out []string
	for _, u := range users {
		out = append(out, u.(map[string]any)["name"].(string))
	}
	return out
}
