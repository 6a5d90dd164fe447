// Package ws exposes the editor core over a websocket. One connection is one
// editing session: HELLO/WELCOME handshake, then ACT commands answered by ACKs
// with VIEW and DIRTY snapshots pushed after state-changing commands.
package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tileforge.dev/internal/protocol"
)

// Core is the engine surface the transport needs.
type Core interface {
	Params() protocol.EditorParams
	HandleAct(protocol.ActMsg) protocol.AckMsg
	ViewSnapshot() protocol.ViewMsg
	DirtySnapshot() protocol.DirtyMsg
}

type Server struct {
	core Core
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(core Core, logger *log.Logger) *Server {
	return &Server{
		core: core,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.log.Printf("session %s connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		send := func(v any) {
			b, err := json.Marshal(v)
			if err != nil {
				s.log.Printf("session %s: marshal: %v", sessionID, err)
				return
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		// Initial state so the client can draw before the first command.
		send(s.core.ViewSnapshot())
		send(s.core.DirtySnapshot())

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}

			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			if err := protocol.ValidateAct(msg); err != nil {
				send(protocol.AckMsg{
					Type:    protocol.TypeAck,
					OK:      false,
					Code:    protocol.ErrProtoBadRequest,
					Message: err.Error(),
				})
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}

			ack := s.core.HandleAct(act)
			send(ack)
			if ack.OK && changesState(act.Cmd) {
				send(s.core.ViewSnapshot())
				send(s.core.DirtySnapshot())
			}
		}

		s.log.Printf("session %s disconnected", sessionID)
	}
}

// changesState reports whether a command invalidates the client's copy of the
// neighborhood or the dirty set.
func changesState(cmd string) bool {
	switch cmd {
	case protocol.CmdPaint, protocol.CmdMove, protocol.CmdJump,
		protocol.CmdSave, protocol.CmdSaveAll:
		return true
	}
	return false
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	sessionID = newSessionID()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Params:          s.core.Params(),
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", false
	}
	return sessionID, true
}

func newSessionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "session"
	}
	return hex.EncodeToString(buf[:])
}
