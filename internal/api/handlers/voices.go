package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/openmobiletts/internal/speech"
)

type VoicesHandler struct {
	speech *speech.Service
}

func NewVoicesHandler(svc *speech.Service) *VoicesHandler {
	return &VoicesHandler{speech: svc}
}

func (h *VoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.speech.Voices())
}
