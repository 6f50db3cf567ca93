package api

import (
	"net/http"
)

// GetAdminUserData returns the whole record document. It answers 404 unless
// enabled in the config.
func (a *API) GetAdminUserData(w http.ResponseWriter, r *http.Request) {
	if !a.cfg.ExposeUserData {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
		return
	}

	a.getLoggerOrBaseLogger(r.Context()).Info("Serving user data export")

	writeJSON(w, http.StatusOK, a.workflow.ReadDocument(r.Context()))
}
