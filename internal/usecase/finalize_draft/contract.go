package finalize_draft

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	GetByAgentWithFilter(ctx context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

// AgentRepository интерфейс репозитория агентов
type AgentRepository interface {
	ListActive(ctx context.Context) ([]*domain.Agent, error)
	ListBlockedIntervals(ctx context.Context, agentID int64, date time.Time) ([]*domain.BlockedTimeInterval, error)
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetServices(ctx context.Context, serviceIDs []string) (domain.Catalog, error)
}

// CouponClient интерфейс клиента сервиса купонов
type CouponClient interface {
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)
}

// WalletLedger интерфейс журнала кошелька
type WalletLedger interface {
	ApplyTransaction(ctx context.Context, clientID int64, amount float64, txType domain.TransactionType, description string) (float64, error)
}

// EventPublisher интерфейс отправки событий жизненного цикла
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс бизнес-метрик назначения
type Metrics interface {
	IncAssignment(policy, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
