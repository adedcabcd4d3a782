package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"plotline-service/internal/app"
	"plotline-service/internal/domain"
)

// APIHandler serves the JSON endpoints backing the mini-game client.
type APIHandler struct {
	service *app.ProfileService
}

func NewAPIHandler(service *app.ProfileService) *APIHandler {
	return &APIHandler{service: service}
}

type userRequest struct {
	ExternalID  int64   `json:"externalId"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Score       *int    `json:"score"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HandleUser implements POST /api/user: lookup-or-create the profile, then
// raise the high score when a score is supplied. The response is the
// profile as it stood after creation; a simultaneous raise shows up on the
// next read.
func (h *APIHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if req.ExternalID == 0 || req.Username == "" || req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
		return
	}

	profile, err := h.service.SignIn(r.Context(), req.ExternalID, req.Username, req.DisplayName, req.AvatarURL)
	if err != nil {
		log.Printf("profile upsert failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error", Details: err.Error()})
		return
	}

	if req.Score != nil {
		if err := h.service.ReportScore(r.Context(), req.ExternalID, *req.Score); err != nil {
			if errors.Is(err, domain.ErrInvalidScore) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid score"})
				return
			}
			log.Printf("score raise failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error", Details: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleLeaderboard implements GET /api/leaderboard: ranked entries with a
// positive high score, descending, capped.
func (h *APIHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	lb, err := h.service.Leaderboard(r.Context())
	if err != nil {
		log.Printf("leaderboard fetch failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, lb.Entries)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
