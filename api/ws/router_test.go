package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kasuganosora/neonmaze/audit"
	"github.com/kasuganosora/neonmaze/game/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { return zap.NewNop() }

// newSession creates a minimal PlayerSession for testing.
func newSession(id string) *player.PlayerSession {
	return &player.PlayerSession{
		PlayerID: id,
		Name:     "name-" + id,
		SendChan: make(chan player.Frame, 512),
		Done:     make(chan struct{}),
	}
}

func makePacket(t *testing.T, seq uint64, msgType string, payload interface{}) []byte {
	t.Helper()
	p, _ := json.Marshal(payload)
	pkt := player.Packet{Seq: seq, Type: msgType, Payload: p}
	b, err := json.Marshal(pkt)
	require.NoError(t, err)
	return b
}

func TestRouter_On_Dispatch_Basic(t *testing.T) {
	r := NewRouter(nop())
	called := false
	r.On("ping", func(ctx context.Context, s *player.PlayerSession, payload json.RawMessage) error {
		called = true
		return nil
	})

	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "ping", nil))
	assert.True(t, called)
}

func TestRouter_Dispatch_MalformedJSON(t *testing.T) {
	r := NewRouter(nop())
	s := newSession("p1")
	// Should not panic
	r.Dispatch(s, []byte("not json"))
}

func TestRouter_Dispatch_UnknownType(t *testing.T) {
	r := NewRouter(nop())
	called := false
	r.On("known", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		called = true
		return nil
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "unknown", nil))
	assert.False(t, called)
}

func TestRouter_Dispatch_AntiReplay_RejectsOldSeq(t *testing.T) {
	r := NewRouter(nop())
	var callCount int
	r.On("msg", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		callCount++
		return nil
	})
	s := newSession("p1")

	// First message with seq=5 → accepted
	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	assert.Equal(t, 1, callCount)

	// Same seq=5 → rejected (replay)
	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	assert.Equal(t, 1, callCount)

	// Lower seq=3 → rejected
	r.Dispatch(s, makePacket(t, 3, "msg", nil))
	assert.Equal(t, 1, callCount)
}

func TestRouter_Dispatch_AntiReplay_AcceptsNewSeq(t *testing.T) {
	r := NewRouter(nop())
	var callCount int
	r.On("msg", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		callCount++
		return nil
	})
	s := newSession("p1")

	r.Dispatch(s, makePacket(t, 10, "msg", nil))
	r.Dispatch(s, makePacket(t, 11, "msg", nil))
	r.Dispatch(s, makePacket(t, 100, "msg", nil))
	assert.Equal(t, 3, callCount)
}

func TestRouter_Dispatch_SeqZero_SkipsAntiReplay(t *testing.T) {
	r := NewRouter(nop())
	var callCount int
	r.On("msg", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		callCount++
		return nil
	})
	s := newSession("p1")
	s.LastSeq = 100 // high seq already seen

	// Seq=0 should bypass anti-replay
	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	assert.Equal(t, 2, callCount)
}

func TestRouter_Dispatch_PayloadPassed(t *testing.T) {
	r := NewRouter(nop())
	var got map[string]interface{}
	r.On("data", func(_ context.Context, _ *player.PlayerSession, raw json.RawMessage) error {
		return json.Unmarshal(raw, &got)
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "data", map[string]interface{}{"key": "value"}))
	assert.Equal(t, "value", got["key"])
}

func TestRouter_Dispatch_HandlerError_RepliesError(t *testing.T) {
	r := NewRouter(nop())
	r.On("err", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		return assert.AnError
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "err", nil))

	pkts := drain(s)
	require.Len(t, pkts, 1)
	assert.Equal(t, "error", pkts[0].Type)
	var e errorPayload
	require.NoError(t, json.Unmarshal(pkts[0].Payload, &e))
	assert.Equal(t, "err", e.Type)
	assert.Equal(t, assert.AnError.Error(), e.Error)
}

func TestRouter_TraceIDFromCtx_Present(t *testing.T) {
	r := NewRouter(nop())
	var traceID string
	r.On("trace", func(ctx context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		traceID = TraceIDFromCtx(ctx)
		return nil
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "trace", nil))
	assert.NotEmpty(t, traceID)
}

func TestTraceIDFromCtx_Missing(t *testing.T) {
	id := TraceIDFromCtx(context.Background())
	assert.Equal(t, "", id)
}

func TestRouter_MultipleHandlers(t *testing.T) {
	r := NewRouter(nop())
	var calls []string
	r.On("a", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		calls = append(calls, "a")
		return nil
	})
	r.On("b", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		calls = append(calls, "b")
		return nil
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "a", nil))
	r.Dispatch(s, makePacket(t, 2, "b", nil))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestRouter_ReplaceHandler(t *testing.T) {
	r := NewRouter(nop())
	var calls []string
	r.On("msg", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		calls = append(calls, "first")
		return nil
	})
	r.On("msg", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		calls = append(calls, "second")
		return nil
	})
	s := newSession("p1")
	r.Dispatch(s, makePacket(t, 1, "msg", nil))
	assert.Equal(t, []string{"second"}, calls)
}

type fakeAuditor struct{ entries []audit.AuditEntry }

func (f *fakeAuditor) Log(e audit.AuditEntry) { f.entries = append(f.entries, e) }

func TestRouter_Audit(t *testing.T) {
	r := NewRouter(nop())
	a := &fakeAuditor{}
	r.SetAuditor(a, "pose")
	r.On("lobby_join", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error {
		return errors.New("lobby: room not found")
	})
	r.On("pose", func(_ context.Context, _ *player.PlayerSession, _ json.RawMessage) error { return nil })

	s := newSession("p1")
	s.SetRoom("r1")
	r.Dispatch(s, makePacket(t, 0, "pose", map[string]int{"x": 1}))
	r.Dispatch(s, makePacket(t, 0, "lobby_join", map[string]string{"room_id": "abc"}))

	require.Len(t, a.entries, 1)
	e := a.entries[0]
	assert.Equal(t, "lobby_join", e.Action)
	assert.Equal(t, "p1", e.PlayerID)
	assert.Equal(t, "name-p1", e.PlayerName)
	assert.Equal(t, "r1", e.RoomID)
	assert.Equal(t, "lobby: room not found", e.Error)
	assert.NotEmpty(t, e.TraceID)
	assert.JSONEq(t, `{"room_id":"abc"}`, string(e.Request.(json.RawMessage)))
}

func TestRouter_DispatchBinary(t *testing.T) {
	r := NewRouter(nop())
	s := newSession("p1")
	r.DispatchBinary(s, []byte{1}) // no handler registered

	var got []byte
	r.OnBinary(func(_ context.Context, _ *player.PlayerSession, data []byte) error {
		got = data
		return nil
	})
	r.DispatchBinary(s, []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, got)
}
