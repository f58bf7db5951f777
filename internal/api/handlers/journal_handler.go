package handlers

import (
	"net/http"

	"github.com/markdave123-py/mindease/internal/services"
)

type JournalHandler struct {
	journals *services.JournalService
	moods    *services.MoodService
}

func NewJournalHandler(journals *services.JournalService, moods *services.MoodService) *JournalHandler {
	return &JournalHandler{journals: journals, moods: moods}
}

type journalRequest struct {
	Content    *string `json:"content"`
	MoodRating int     `json:"mood_rating"`
}

type moodRequest struct {
	MoodRating     int    `json:"mood_rating"`
	ContextTrigger string `json:"context_trigger"`
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req journalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeError(w, r, &services.ValidationError{Field: "content", Message: "must be a string"})
		return
	}

	entry, err := h.journals.Create(r.Context(), uid, *req.Content, req.MoodRating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": entry.ID, "emotions": entry.Emotions})
}

func (h *JournalHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}
	var req journalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeError(w, r, &services.ValidationError{Field: "content", Message: "must be a string"})
		return
	}

	emotions, err := h.journals.Analyze(r.Context(), *req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emotions": emotions})
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	entries, err := h.journals.List(r.Context(), uid, queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *JournalHandler) LogMood(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req moodRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.moods.Log(r.Context(), uid, req.MoodRating, req.ContextTrigger)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *JournalHandler) Insights(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	in, err := h.moods.Insights(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
