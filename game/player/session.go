package player

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadlineS = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Packet is the unified WS message envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Frame is one queued outbound message. Binary frames carry msgpack.
type Frame struct {
	Binary bool
	Data   []byte
}

// PlayerSession represents a connected player's WebSocket session.
type PlayerSession struct {
	PlayerID string
	Name     string

	Conn     *websocket.Conn
	SendChan chan Frame
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	roomID string // lobby room, empty when not in one
	simID  string // running single-player round

	mu     sync.Mutex
	logger *zap.Logger
}

// NewPlayerSession creates a new PlayerSession with write goroutine started.
func NewPlayerSession(playerID, name string, conn *websocket.Conn, logger *zap.Logger) *PlayerSession {
	s := &PlayerSession{
		PlayerID: playerID,
		Name:     name,
		Conn:     conn,
		SendChan: make(chan Frame, sendChanBuf),
		Done:     make(chan struct{}),
		logger:   logger,
	}
	go s.writePump()
	return s
}

// writePump drains SendChan and writes to the WebSocket connection.
// Also sends periodic WebSocket pings to detect dead connections quickly.
func (s *PlayerSession) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case f, ok := <-s.SendChan:
			if !ok {
				return
			}
			kind := websocket.TextMessage
			if f.Binary {
				kind = websocket.BinaryMessage
			}
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(kind, f.Data); err != nil {
				s.logger.Warn("ws write error",
					zap.String("player_id", s.PlayerID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and sends it non-blocking. Drops if channel full or closed.
func (s *PlayerSession) Send(pkt *Packet) {
	if s.IsClosed() {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	s.enqueue(Frame{Data: data}, pkt.Type)
}

// SendJSON wraps v as the payload of a packet of type t.
func (s *PlayerSession) SendJSON(t string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Send(&Packet{Type: t, Payload: payload})
}

// SendRaw sends a pre-encoded text frame.
func (s *PlayerSession) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	s.enqueue(Frame{Data: data}, "raw")
}

// SendBinary sends a pre-encoded binary frame.
func (s *PlayerSession) SendBinary(data []byte) {
	if s.IsClosed() {
		return
	}
	s.enqueue(Frame{Binary: true, Data: data}, "binary")
}

func (s *PlayerSession) enqueue(f Frame, what string) {
	select {
	case s.SendChan <- f:
	case <-s.Done:
	default:
		if !s.IsClosed() && s.logger != nil {
			s.logger.Warn("send channel full, dropping packet",
				zap.String("player_id", s.PlayerID),
				zap.String("type", what))
		}
	}
}

// Close signals the writePump to shut down.
func (s *PlayerSession) Close() {
	select {
	case <-s.Done:
	default:
		close(s.Done)
	}
}

// IsClosed returns true if the session has been closed.
func (s *PlayerSession) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// SetRoom records the lobby room the player is in.
func (s *PlayerSession) SetRoom(id string) {
	s.mu.Lock()
	s.roomID = id
	s.mu.Unlock()
}

func (s *PlayerSession) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// SetSim records the running single-player round.
func (s *PlayerSession) SetSim(id string) {
	s.mu.Lock()
	s.simID = id
	s.mu.Unlock()
}

func (s *PlayerSession) Sim() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simID
}

// SendHeartbeatPong sends a pong packet in response to a client ping.
func (s *PlayerSession) SendHeartbeatPong(clientTS int64) {
	type pongPayload struct {
		ClientTS int64 `json:"client_ts"`
		ServerTS int64 `json:"server_ts"`
	}
	s.SendJSON("pong", pongPayload{
		ClientTS: clientTS,
		ServerTS: time.Now().UnixMilli(),
	})
}

// SetReadDeadline resets the WebSocket read deadline to 60 s from now.
func (s *PlayerSession) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadlineS))
}
