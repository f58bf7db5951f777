package handlers

import (
	"net/http"

	"github.com/markdave123-py/mindease/internal/core/persona"
	"github.com/markdave123-py/mindease/internal/services"
)

type PersonaHandler struct {
	svc *services.PersonaService
}

func NewPersonaHandler(svc *services.PersonaService) *PersonaHandler {
	return &PersonaHandler{svc: svc}
}

type personaRequest struct {
	Answers []persona.Answer `json:"answers"`
}

type personaResponse struct {
	Persona string `json:"persona"`
	Name    string `json:"name"`
}

func (h *PersonaHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": h.svc.Questions()})
}

func (h *PersonaHandler) Assign(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req personaRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.svc.Assign(r.Context(), uid, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, personaResponse{Persona: p.String(), Name: p.Name()})
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Current(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, personaResponse{Persona: p.String(), Name: p.Name()})
}
