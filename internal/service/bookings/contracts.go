package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// GetByIDForUpdate берёт блокировку строки — все мутации идут через неё
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	GetByAgentWithFilter(ctx context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error)
	GetByClientWithFilter(ctx context.Context, filter domain.ClientBookingsFilter) ([]*domain.Booking, error)
	GetByDateAndStatus(ctx context.Context, date time.Time, status domain.BookingStatus) ([]*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

// AgentRepository интерфейс репозитория агентов
type AgentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	ListActive(ctx context.Context) ([]*domain.Agent, error)
	ListBlockedIntervals(ctx context.Context, agentID int64, date time.Time) ([]*domain.BlockedTimeInterval, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

// WalletLedger интерфейс журнала кошелька
//
// Операция обязана выполняться в той же транзакции, что и переход
// статуса: бронирование не может стать Confirmado без списания
// и Cancelado без возврата
type WalletLedger interface {
	ApplyTransaction(ctx context.Context, clientID int64, amount float64, txType domain.TransactionType, description string) (float64, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetServices(ctx context.Context, serviceIDs []string) (domain.Catalog, error)
}

// EventPublisher интерфейс отправки событий жизненного цикла
//
// Отправка fire-and-forget: ошибка логируется и никогда не откатывает
// породивший событие переход
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс бизнес-метрик жизненного цикла
type Metrics interface {
	IncOutboxEvent(eventType, outcome string)
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
