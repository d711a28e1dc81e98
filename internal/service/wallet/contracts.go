package wallet

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// LedgerRepository интерфейс репозитория кошелька клиента
//
// GetBalanceForUpdate обязан брать блокировку строки клиента (FOR UPDATE):
// баланс меняется только под блокировкой и только вместе со вставкой
// строки журнала в одной транзакции
type LedgerRepository interface {
	GetBalanceForUpdate(ctx context.Context, clientID int64) (float64, error)
	InsertTransaction(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error)
	UpdateBalance(ctx context.Context, clientID int64, balance float64) error
	ListTransactions(ctx context.Context, clientID int64, limit int) ([]*domain.WalletTransaction, error)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс бизнес-метрик кошелька
type Metrics interface {
	IncWalletTransaction(txType string)
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
