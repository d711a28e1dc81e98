package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByAgentWithFilter(ctx context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error)
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

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
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
