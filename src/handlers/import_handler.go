package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/yieldly/backend/src/config"
	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/services"
	"github.com/username/yieldly/backend/src/utils"
)

type ImportHandler struct {
	portfolioService services.PortfolioService
}

func NewImportHandler(portfolioService services.PortfolioService) *ImportHandler {
	return &ImportHandler{portfolioService: portfolioService}
}

// HandleImportCSV runs a bulk transaction import. The response reports
// per-line successes and errors; a bad line never fails the request.
func (h *ImportHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxImportSizeBytes)

	var req struct {
		CSVData string `json:"csvData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body or request too large", http.StatusBadRequest)
		return
	}
	if req.CSVData == "" {
		utils.SendJSONError(w, "CSV data required", http.StatusBadRequest)
		return
	}

	result, err := h.portfolioService.ImportCSV(strings.NewReader(req.CSVData))
	if err != nil {
		logger.L.Error("CSV import failed", "error", err)
		utils.SendJSONError(w, "Failed to import CSV", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
