package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/protocol"
	"github.com/ShatterPro0f/TypedLeadershipSimulator-sub004/internal/sim/world"
)

// outQueueSize bounds the per-client frame queue. The world drops the
// oldest OBS when a slow client falls behind, so a small queue is enough.
const outQueueSize = 16

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(conn)
		if agentID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

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

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeAct:
				var act protocol.ActMsg
				if err := json.Unmarshal(msg, &act); err != nil {
					continue
				}
				if act.ProtocolVersion != protocol.Version {
					continue
				}
				s.world.Inbox() <- world.ActionEnvelope{AgentID: agentID, Act: act}

			case protocol.TypeEventBatchReq:
				var req protocol.EventBatchReqMsg
				if err := json.Unmarshal(msg, &req); err != nil {
					continue
				}
				s.serveEventBatch(out, req)
			}
		}

		// Cleanup: detach only. The agent keeps simulating and a later
		// HELLO with the resume token picks it back up.
		s.world.Leave() <- agentID
	}
}

// serveEventBatch asks the world loop for missed events and queues the
// reply on the client's out channel.
func (s *Server) serveEventBatch(out chan []byte, req protocol.EventBatchReqMsg) {
	respCh := make(chan world.EventQueryResult, 1)
	s.world.Query() <- world.EventQuery{
		SinceCursor: req.SinceCursor,
		Limit:       req.Limit,
		Resp:        respCh,
	}
	res := <-respCh

	batch := protocol.EventBatchMsg{
		Type:            protocol.TypeEventBatch,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Events:          res.Events,
		NextCursor:      res.NextCursor,
	}
	b, err := json.Marshal(batch)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
		// Queue full; the client can re-request from the same cursor.
	}
}

func (s *Server) handshake(conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.AgentName == "" {
		hello.AgentName = "agent"
	}

	out = make(chan []byte, outQueueSize)

	// Optional: resume an existing agent (reconnect).
	resumeToken := ""
	if hello.Auth != nil {
		resumeToken = strings.TrimSpace(hello.Auth.ResumeToken)
	}

	var resp world.JoinResponse
	if resumeToken != "" {
		respCh := make(chan world.JoinResponse, 1)
		s.world.Attach() <- world.AttachRequest{
			ResumeToken: resumeToken,
			Out:         out,
			Resp:        respCh,
		}
		resp = <-respCh
	}
	if resp.Welcome.AgentID == "" {
		// Fresh join (also the fallback when the resume token is unknown).
		respCh := make(chan world.JoinResponse, 1)
		s.world.Join() <- world.JoinRequest{
			Name:       hello.AgentName,
			Role:       hello.Role,
			Controlled: hello.Controlled,
			Out:        out,
			Resp:       respCh,
		}
		resp = <-respCh
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}

	return resp.Welcome.AgentID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
