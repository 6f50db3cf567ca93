package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/python-wizard/course-enrollment/analytics"
)

// Analytics responses use "error" rather than "message" for failures; the
// collector reads that field.
type analyticsErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type analyticsSaveResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type analyticsDataResponse struct {
	Success bool              `json:"success"`
	Data    []analytics.Entry `json:"data"`
}

func (a *API) PostAnalyticsSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var session analytics.Session
	if err := decodeJSONBody(w, r, &session); err != nil {
		logger.Warn("Invalid analytics body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, analyticsErrorResponse{Error: "Invalid analytics data"})
		return
	}

	if err := analytics.Enrich(&session, clientIP(r), a.cfg.Locator); err != nil {
		logger.Warn("Failed to locate analytics client", slog.String("error", err.Error()))
	}

	filename, err := a.analytics.Save(ctx, session)
	if err != nil {
		var analyticsErr *analytics.Error
		if errors.As(err, &analyticsErr) && analyticsErr.Reason == analytics.REASON_INVALID_SESSION {
			logger.Warn("Rejected analytics session", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, analyticsErrorResponse{Error: analyticsErr.Message})
			return
		}

		logger.Error("Failed to save analytics session", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, analyticsErrorResponse{Error: "Failed to write analytics data to file"})
		return
	}

	writeJSON(w, http.StatusOK, analyticsSaveResponse{
		Success:  true,
		Message:  "Analytics data saved successfully",
		Filename: filename,
	})
}

func (a *API) GetAnalyticsData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := a.analytics.List(ctx)
	if err != nil {
		a.getLoggerOrBaseLogger(ctx).Error("Failed to read analytics data", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, analyticsErrorResponse{Error: "Failed to read analytics data"})
		return
	}

	writeJSON(w, http.StatusOK, analyticsDataResponse{Success: true, Data: entries})
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
