package find_route_optimizations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

type OptimizerService interface {
	FindRouteOptimizations(ctx context.Context, date time.Time) ([]domain.SwapSuggestion, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
