package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlasfin/engine/src/finance"
	"github.com/atlasfin/engine/src/logger"
	"github.com/atlasfin/engine/src/models"
	"github.com/atlasfin/engine/src/services"
	"github.com/atlasfin/engine/src/utils"
)

type CalculationHandler struct {
	calculationService services.CalculationService
	historyLimit       int
}

func NewCalculationHandler(calculationService services.CalculationService, historyLimit int) *CalculationHandler {
	return &CalculationHandler{
		calculationService: calculationService,
		historyLimit:       historyLimit,
	}
}

// HandleCalculate serves POST /api/calculate. The body names an operation
// and carries its input; the response is {"data": ...} on success or
// {"error": {...}} with the engine error kind mapped to a status code.
func (h *CalculationHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req models.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendEngineError(w, finance.NewValidationError("body", "malformed JSON request body"))
		return
	}

	userID := UserIDFromContext(r.Context())
	logger.L.Info("Handling calculation", "operation", req.Operation, "user", userID)

	result, err := h.calculationService.Calculate(r.Context(), userID, req)
	if err != nil {
		sendEngineError(w, err)
		return
	}

	utils.SendJSON(w, map[string]json.RawMessage{"data": result}, http.StatusOK)
}

// HandleHistory serves GET /api/calculations/history for the caller's
// user id (anonymous callers see the anonymous bucket).
func (h *CalculationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	records, err := h.calculationService.History(r.Context(), userID, h.historyLimit)
	if err != nil {
		logger.L.Error("Failed to load calculation history", "user", userID, "error", err)
		utils.SendJSONError(w, "failed to load calculation history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.CalculationRecord{}
	}

	utils.SendJSON(w, map[string]interface{}{"data": records}, http.StatusOK)
}

// HandleHealth serves GET /api/health.
func (h *CalculationHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// sendEngineError maps the error taxonomy onto HTTP statuses and renders
// the structured error envelope.
func sendEngineError(w http.ResponseWriter, err error) {
	var engineErr *finance.Error
	if !errors.As(err, &engineErr) {
		logger.L.Error("Calculation failed with internal error", "error", err)
		utils.SendJSON(w, map[string]models.ErrorBody{"error": {
			Kind:    "INTERNAL_ERROR",
			Message: "internal error",
		}}, http.StatusInternalServerError)
		return
	}

	status := http.StatusUnprocessableEntity
	switch engineErr.Kind {
	case finance.KindValidation, finance.KindCurrencyMismatch, finance.KindPrecisionOverflow:
		status = http.StatusBadRequest
	}

	utils.SendJSON(w, map[string]models.ErrorBody{"error": {
		Kind:    string(engineErr.Kind),
		Field:   engineErr.Field,
		Message: engineErr.Message,
	}}, status)
}
