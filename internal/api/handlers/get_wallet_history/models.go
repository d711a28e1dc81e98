package get_wallet_history

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// TransactionResponse одна запись журнала кошелька
type TransactionResponse struct {
	ID           int64   `json:"id"`
	Amount       float64 `json:"amount"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	BalanceAfter float64 `json:"balanceAfter"`
	CreatedAt    string  `json:"createdAt"`
}

// WalletHistoryResponse ответ с историей операций по кошельку
type WalletHistoryResponse struct {
	ClientID     int64                 `json:"clientId"`
	Transactions []TransactionResponse `json:"transactions"`
}

// FromDomainTransactions конвертирует записи журнала в HTTP-ответ
func FromDomainTransactions(clientID int64, txs []*domain.WalletTransaction) *WalletHistoryResponse {
	resp := &WalletHistoryResponse{
		ClientID:     clientID,
		Transactions: make([]TransactionResponse, 0, len(txs)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, TransactionResponse{
			ID:           tx.ID,
			Amount:       tx.Amount,
			Type:         string(tx.Type),
			Description:  tx.Description,
			BalanceAfter: tx.BalanceAfter,
			CreatedAt:    tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
