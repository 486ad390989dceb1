package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/crisiscare/crisiscare-backend/internal/apperrors"
	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/models"
	"github.com/crisiscare/crisiscare-backend/internal/services"
)

const (
	maxBodyBytes  = 64 << 10
	maxFormMemory = 32 << 10
)

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// SubmitCommunityHelpResponse is the acknowledgment for a signup.
type SubmitCommunityHelpResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CommunityHelpHandler serves the community-help signup endpoints.
type CommunityHelpHandler struct {
	Service *services.CommunityHelpService
}

// SubmitCommunityHelp handles POST /api/community-help.
func (h *CommunityHelpHandler) SubmitCommunityHelp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCommunityHelpRequest(w, r)
	if err != nil {
		logger.GetLogger().Debugw("Undecodable community help request", "error", err)
		writeJSON(w, http.StatusBadRequest, SubmitCommunityHelpResponse{
			Success: false,
			Error:   apperrors.MsgMissingFields,
		})
		return
	}

	if _, err := h.Service.Submit(r.Context(), req); err != nil {
		writeJSON(w, apperrors.Status(err), SubmitCommunityHelpResponse{
			Success: false,
			Error:   apperrors.PublicMessage(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, SubmitCommunityHelpResponse{Success: true})
}

// ListCommunityHelp handles GET /api/community-help. It returns every stored
// entry, oldest first; an unreadable store reads as empty.
func (h *CommunityHelpHandler) ListCommunityHelp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.List())
}

// decodeCommunityHelpRequest accepts url-encoded or multipart forms, and JSON.
func decodeCommunityHelpRequest(w http.ResponseWriter, r *http.Request) (models.CommunityHelpRequest, error) {
	var req models.CommunityHelpRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, err
	}
	if err := formDecoder.Decode(&req, r.PostForm); err != nil {
		return req, err
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetLogger().Warnw("Failed to write JSON response", "error", err)
	}
}
