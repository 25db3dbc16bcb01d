package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/models"
	"github.com/username/yieldly/backend/src/store"
	"github.com/username/yieldly/backend/src/utils"
)

type TransactionHandler struct {
	ledger *store.LedgerStore
}

func NewTransactionHandler(ledger *store.LedgerStore) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	transactions, err := h.ledger.ListByPortfolio(portfolioID)
	if err != nil {
		logger.L.Error("Failed to list transactions", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.WriteJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PortfolioID int64    `json:"portfolio_id"`
		Ticker      string   `json:"ticker"`
		Type        string   `json:"type"`
		Quantity    *float64 `json:"quantity"`
		Price       *float64 `json:"price"`
		Total       *float64 `json:"total"`
		Date        string   `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PortfolioID == 0 || req.Ticker == "" || req.Type == "" || req.Date == "" {
		utils.SendJSONError(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	// Dividend rows carry only a cash total; for share trades an omitted
	// total is derived from quantity and price.
	var quantity, price float64
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if req.Price != nil {
		price = *req.Price
	}
	total := quantity * price
	if req.Total != nil {
		total = *req.Total
	}
	if quantity < 0 || price < 0 {
		utils.SendJSONError(w, "Quantity and price must not be negative", http.StatusBadRequest)
		return
	}

	tx, err := h.ledger.Insert(models.Transaction{
		PortfolioID: req.PortfolioID,
		Ticker:      req.Ticker,
		Type:        models.TransactionType(req.Type),
		Quantity:    quantity,
		Price:       price,
		Total:       total,
		Date:        req.Date,
	})
	if errors.Is(err, store.ErrInvalidTransactionType) || errors.Is(err, store.ErrMissingFields) {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, store.ErrPortfolioNotFound) {
		utils.SendJSONError(w, "Portfolio not found", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.L.Error("Failed to insert transaction", "portfolioID", req.PortfolioID, "ticker", req.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to add transaction", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	switch err := h.ledger.Delete(id); err {
	case nil:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
	case store.ErrTransactionNotFound:
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
	default:
		logger.L.Error("Failed to delete transaction", "transactionID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
	}
}
