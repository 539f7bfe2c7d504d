// backend/src/handlers/transaction_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
	"github.com/username/smsledger/backend/src/services"
	"github.com/username/smsledger/backend/src/utils"
)

type TransactionHandler struct {
	dashboardService services.DashboardService
}

func NewTransactionHandler(dashboardService services.DashboardService) *TransactionHandler {
	return &TransactionHandler{
		dashboardService: dashboardService,
	}
}

// parseListFilter builds a TransactionFilter from the request query string.
// Unparseable numeric values are ignored rather than rejected; date strings
// are validated downstream by the service.
func parseListFilter(r *http.Request) models.TransactionFilter {
	q := r.URL.Query()

	filter := models.TransactionFilter{
		Type:      q.Get("transaction_type"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}

	if raw := q.Get("min_amount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinAmount = &v
		}
	}
	if raw := q.Get("max_amount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxAmount = &v
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	return filter
}

func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	filter := parseListFilter(r)
	logger.L.Debug("Handling GetTransactions request", "userID", userID, "type", filter.Type, "startDate", filter.StartDate, "endDate", filter.EndDate)

	transactions, err := h.dashboardService.ListTransactions(userID, filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error querying transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []models.Transaction{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transactions); err != nil {
		logger.L.Error("Error generating JSON response for transactions", "userID", userID, "error", err)
	}
}

func (h *TransactionHandler) HandleGetTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	txID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	transaction, err := h.dashboardService.GetTransaction(userID, txID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving transaction", "userID", userID, "txID", txID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transaction); err != nil {
		logger.L.Error("Error generating JSON response for transaction", "userID", userID, "txID", txID, "error", err)
	}
}
