// backend/src/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/services"
	"github.com/username/smsledger/backend/src/utils"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

func (h *DashboardHandler) HandleGetTypeSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	logger.L.Debug("Handling GetTypeSummary request with ETag support", "userID", userID)

	summary, err := h.dashboardService.GetTypeSummary(userID)
	if err != nil {
		logger.L.Error("Error retrieving type summary", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving summary for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(summary)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for type summary", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Info("ETag match for type summary", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		logger.L.Error("Error generating JSON response for type summary", "userID", userID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetVolumeByType(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	view, err := h.dashboardService.GetVolumeByType(userID)
	if err != nil {
		logger.L.Error("Error retrieving volume by type", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve volume by type", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logger.L.Error("Error generating JSON response for volume by type", "userID", userID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetMonthlyVolume(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	view, err := h.dashboardService.GetMonthlyVolume(userID)
	if err != nil {
		logger.L.Error("Error retrieving monthly volume", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve monthly volume", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logger.L.Error("Error generating JSON response for monthly volume", "userID", userID, "error", err)
	}
}

func (h *DashboardHandler) HandleGetAmountDistribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	view, err := h.dashboardService.GetAmountDistribution(userID)
	if err != nil {
		logger.L.Error("Error retrieving amount distribution", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve amount distribution", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logger.L.Error("Error generating JSON response for amount distribution", "userID", userID, "error", err)
	}
}
