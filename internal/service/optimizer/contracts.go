package optimizer

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByDateAndStatus(ctx context.Context, date time.Time, status domain.BookingStatus) ([]*domain.Booking, error)
}

// AgentRepository интерфейс репозитория агентов
type AgentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	ListActive(ctx context.Context) ([]*domain.Agent, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс бизнес-метрик оптимизатора
type Metrics interface {
	SetSwapSuggestions(count float64)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
