package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/generator"
)

// formMemory is how much of a multipart body is kept in memory.
const formMemory = 1 << 20

const msgTooLarge = "Request body too large"

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, chat.GenerateResponse{Error: msgTooLarge})
			return
		}
		writeJSON(w, http.StatusBadRequest, chat.GenerateResponse{Error: "Invalid form data"})
		return
	}

	id, err := s.session(w, r)
	if err != nil {
		s.logger.Error("resolving session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, chat.GenerateResponse{Error: generator.MsgUnexpected})
		return
	}

	input := r.FormValue(chat.FieldUserInput)
	repair := r.FormValue(chat.FieldIsRepair) == "true"

	status, resp := s.generate(r.Context(), id, input, repair)
	writeJSON(w, status, resp)
}

// generate runs the engine and maps its outcome onto a status code and body.
// Shared by the HTTP and websocket routes.
func (s *Server) generate(ctx context.Context, id, input string, repair bool) (int, chat.GenerateResponse) {
	res, err := s.engine.Generate(ctx, id, input, repair)
	switch {
	case err == nil:
		return http.StatusOK, res.Response()
	case errors.Is(err, generator.ErrEmptyInput):
		return http.StatusBadRequest, chat.GenerateResponse{Error: generator.MsgEmptyInput}
	}

	s.logger.Error("generate route error", zap.String("session", id), zap.Error(err))
	resp := chat.GenerateResponse{Error: generator.MsgUnexpected}
	if history, herr := s.sessions.History(ctx, id); herr == nil {
		resp.ChatHistory = history
	}
	return http.StatusInternalServerError, resp
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.session(w, r)
	if err == nil {
		err = s.sessions.Reset(r.Context(), id)
	}
	if err != nil {
		s.logger.Error("clearing session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, chat.ClearResponse{Status: "error"})
		return
	}
	writeJSON(w, http.StatusOK, chat.ClearResponse{Status: chat.StatusSuccess})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := s.session(w, r)
	var history []chat.Entry
	if err == nil {
		history, err = s.sessions.History(r.Context(), id)
	}
	if err != nil {
		s.logger.Error("loading history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, chat.GenerateResponse{Error: generator.MsgUnexpected})
		return
	}
	writeJSON(w, http.StatusOK, chat.GenerateResponse{ChatHistory: history})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
