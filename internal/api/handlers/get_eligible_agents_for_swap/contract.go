package get_eligible_agents_for_swap

import (
	"context"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

type OptimizerService interface {
	GetEligibleAgentsForSwap(ctx context.Context, bookingID int64) ([]*domain.Agent, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
