package find_route_optimizations

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
)

const (
	msgMissingDate = "параметр date обязателен"
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	service OptimizerService
	logger  Logger
}

func NewHandler(service OptimizerService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/optimizations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /optimizations - Missing date parameter")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.logger.Warn("GET /optimizations - Invalid date: value=%s, error=%v", dateStr, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	suggestions, err := h.service.FindRouteOptimizations(r.Context(), date)
	if err != nil {
		h.logger.Error("GET /optimizations - Failed to find optimizations: date=%s, error=%v", dateStr, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /optimizations - Optimizations computed: date=%s, suggestions=%d", dateStr, len(suggestions))
	handlers.RespondJSON(w, http.StatusOK, FromDomainSuggestions(dateStr, suggestions))
}
