package get_wallet_history

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	"github.com/m04kA/SMC-DispatchService/internal/service/wallet"
)

const (
	msgInvalidClientID = "некорректный ID клиента"
	msgInvalidLimit    = "некорректный параметр limit"
	msgNotFound        = "клиент не найден"

	defaultLimit = 50
)

type Handler struct {
	service WalletService
	logger  Logger
}

func NewHandler(service WalletService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/clients/{clientId}/wallet/transactions
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clientID, err := strconv.ParseInt(vars["clientId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /clients/{id}/wallet/transactions - Invalid client ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	limit := defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.logger.Warn("GET /clients/{id}/wallet/transactions - Invalid limit: client_id=%d, value=%s", clientID, limitStr)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		limit = parsed
	}

	txs, err := h.service.History(r.Context(), clientID, limit)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrClientNotFound):
			h.logger.Warn("GET /clients/{id}/wallet/transactions - Client not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /clients/{id}/wallet/transactions - Failed to get history: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /clients/{id}/wallet/transactions - History retrieved: client_id=%d, count=%d",
		clientID, len(txs))
	handlers.RespondJSON(w, http.StatusOK, FromDomainTransactions(clientID, txs))
}
