package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/neonmaze/audit"
	"github.com/kasuganosora/neonmaze/game/player"
	"go.uber.org/zap"
)

// HandlerFunc processes a decoded WS message payload. A returned error is
// sent back to the client as an "error" packet.
type HandlerFunc func(ctx context.Context, session *player.PlayerSession, payload json.RawMessage) error

// BinaryHandlerFunc processes one binary frame.
type BinaryHandlerFunc func(ctx context.Context, session *player.PlayerSession, data []byte) error

// Auditor receives one entry per audited dispatch.
type Auditor interface {
	Log(audit.AuditEntry)
}

// Router dispatches incoming WS packets to registered handlers.
type Router struct {
	handlers map[string]HandlerFunc
	binary   BinaryHandlerFunc
	auditor  Auditor
	quiet    map[string]bool
	logger   *zap.Logger
}

// NewRouter creates a new Router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		quiet:    make(map[string]bool),
		logger:   logger,
	}
}

// On registers a HandlerFunc for the given message type.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// OnBinary registers the handler for binary frames.
func (r *Router) OnBinary(fn BinaryHandlerFunc) {
	r.binary = fn
}

// SetAuditor logs every dispatched packet to a, except the high-rate types
// listed in skip.
func (r *Router) SetAuditor(a Auditor, skip ...string) {
	r.auditor = a
	for _, t := range skip {
		r.quiet[t] = true
	}
}

// Dispatch decodes raw bytes, validates seq, and invokes the appropriate handler.
func (r *Router) Dispatch(s *player.PlayerSession, raw []byte) {
	var pkt player.Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		r.logger.Warn("malformed packet",
			zap.String("player_id", s.PlayerID),
			zap.Error(err))
		return
	}

	// Monotonic seq check (anti-replay). Seq == 0 means no seq tracking.
	if pkt.Seq != 0 && pkt.Seq <= s.LastSeq {
		r.logger.Warn("replayed or out-of-order packet",
			zap.String("player_id", s.PlayerID),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", s.LastSeq))
		return
	}
	if pkt.Seq != 0 {
		s.LastSeq = pkt.Seq
	}

	fn, ok := r.handlers[pkt.Type]
	if !ok {
		r.logger.Debug("unhandled message type",
			zap.String("type", pkt.Type),
			zap.String("player_id", s.PlayerID))
		return
	}

	s.TraceID = uuid.NewString()
	ctx := context.WithValue(context.Background(), ctxKeyTraceID{}, s.TraceID)
	start := time.Now()
	err := fn(ctx, s, pkt.Payload)
	if err != nil {
		r.logger.Warn("handler error",
			zap.String("type", pkt.Type),
			zap.String("player_id", s.PlayerID),
			zap.String("trace_id", s.TraceID),
			zap.Error(err))
		replyError(s, pkt.Type, err.Error())
	}
	if r.auditor != nil && !r.quiet[pkt.Type] {
		entry := audit.AuditEntry{
			TraceID:    s.TraceID,
			PlayerID:   s.PlayerID,
			PlayerName: s.Name,
			RoomID:     s.Room(),
			Action:     pkt.Type,
			DurationMs: int(time.Since(start).Milliseconds()),
		}
		if len(pkt.Payload) > 0 {
			entry.Request = pkt.Payload
		}
		if err != nil {
			entry.Error = err.Error()
		}
		r.auditor.Log(entry)
	}
}

// DispatchBinary hands a binary frame to the binary handler.
func (r *Router) DispatchBinary(s *player.PlayerSession, data []byte) {
	if r.binary == nil {
		return
	}
	if err := r.binary(context.Background(), s, data); err != nil {
		r.logger.Debug("binary frame rejected",
			zap.String("player_id", s.PlayerID),
			zap.Error(err))
	}
}

type ctxKeyTraceID struct{}

// TraceIDFromCtx extracts the trace ID from a handler context.
func TraceIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTraceID{}).(string); ok {
		return v
	}
	return ""
}

type errorPayload struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func replyError(s *player.PlayerSession, msgType, msg string) {
	s.SendJSON("error", errorPayload{Type: msgType, Error: msg})
}
