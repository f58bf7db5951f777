package handlers

import (
	"net/http"

	"github.com/markdave123-py/mindease/internal/services"
)

type ChatHandler struct {
	ctrl *services.EscalationController
}

func NewChatHandler(ctrl *services.EscalationController) *ChatHandler {
	return &ChatHandler{ctrl: ctrl}
}

type chatRequest struct {
	Message   *string `json:"message"`
	MessageID string  `json:"message_id"`
}

// Send handles one chat turn. The Idempotency-Key header may stand in for message_id.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Message == nil {
		writeError(w, r, &services.ValidationError{Field: "message", Message: "must be a string"})
		return
	}
	if req.MessageID == "" {
		req.MessageID = r.Header.Get("Idempotency-Key")
	}

	res, err := h.ctrl.HandleMessage(r.Context(), services.ChatRequest{
		UserID:    uid,
		MessageID: req.MessageID,
		Message:   *req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	msgs, err := h.ctrl.History(r.Context(), uid, queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}
