package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/flowgraph/internal/chat"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSRequest is one generate request sent over /ws/generate.
type WSRequest struct {
	UserInput string `json:"user_input"`
	IsRepair  bool   `json:"is_repair"`
}

// handleGenerateWS serves generate requests over a websocket. Every request
// gets exactly one chat.GenerateResponse back, in order.
func (s *Server) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	id, cookie, err := s.resolveSession(r)
	if err != nil {
		s.logger.Error("resolving session", zap.Error(err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	header := http.Header{}
	if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}
	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, chat.GenerateResponse{Error: "invalid message format"})
			continue
		}

		ctx, cancel := r.Context(), context.CancelFunc(func() {})
		if s.cfg.RequestTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		}
		_, resp := s.generate(ctx, id, req.UserInput, req.IsRepair)
		cancel()
		s.send(conn, resp)
	}
}

func (s *Server) send(conn *websocket.Conn, resp chat.GenerateResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write", zap.Error(err))
	}
}
