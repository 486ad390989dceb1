package handlers

import (
	"net/http"

	"github.com/crisiscare/crisiscare-backend/internal/services"
)

// ListHelpLocations handles GET /api/help-locations with the markers and
// initial view for the help map.
func ListHelpLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.DefaultHelpMap())
}
