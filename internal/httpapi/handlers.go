package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"imsgd/internal/status"
)

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state := status.Ready
	if s.machine != nil {
		state = s.machine.Current()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         state,
		"sendingEnabled": s.sender != nil,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, _ *http.Request) {
	convs, err := s.store.ListConversations()
	if err != nil {
		s.logger.Error("list conversations failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	conv, err := s.store.GetConversation(id)
	if err != nil {
		s.logger.Error("get conversation failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	var before int64
	if v := r.URL.Query().Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid before cursor")
			return
		}
		before = n
	}

	page, err := s.store.GetMessages(id, limit, before)
	if err != nil {
		s.logger.Error("get messages failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type sendRequest struct {
	Text string `json:"text"`
}

// handleSendMessage delegates to the messaging automation collaborator.
// There is no synchronous delivery acknowledgement: the sent message
// surfaces back through chat.db on a later poll.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	if s.sender == nil {
		writeError(w, http.StatusServiceUnavailable, "sending not configured")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	conv, err := s.store.GetConversation(id)
	if err != nil {
		s.logger.Error("send lookup failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	if conv.IsGroup {
		err = s.sender.SendGroupText(r.Context(), conv.GUID, req.Text)
	} else {
		if len(conv.Participants) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "conversation has no recipient handle")
			return
		}
		err = s.sender.SendText(r.Context(), conv.Participants[0].Handle, req.Text)
	}
	if err != nil {
		s.logger.Error("send failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "send failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// handleAttachment resolves a source-relative attachment path under
// the configured root and serves the file.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		writeError(w, http.StatusBadRequest, "attachment path required")
		return
	}
	rel = filepath.Clean("/" + rel)[1:] // neutralize traversal
	if rel == "" || rel == "." {
		writeError(w, http.StatusBadRequest, "attachment path required")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.AttachmentRoot, rel))
}

func conversationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return 0, false
	}
	return id, true
}
