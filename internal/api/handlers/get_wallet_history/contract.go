package get_wallet_history

import (
	"context"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

type WalletService interface {
	History(ctx context.Context, clientID int64, limit int) ([]*domain.WalletTransaction, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
