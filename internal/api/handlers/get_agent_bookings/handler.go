package get_agent_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	"github.com/m04kA/SMC-DispatchService/internal/api/middleware"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
)

const (
	msgInvalidAgentID = "некорректный ID агента"
	msgInvalidFilter  = "некорректные параметры фильтра"
	msgMissingUserID  = "отсутствует ID пользователя"
	msgForbidden      = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/agents/{agentId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	agentID, err := strconv.ParseInt(vars["agentId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /agents/{id}/bookings - Invalid agent ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAgentID)
		return
	}

	// Получаем userID из контекста (через middleware Auth)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /agents/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	query := r.URL.Query()
	req := models.GetAgentBookingsRequest{
		AgentID: agentID,
		UserID:  userID,
	}
	if date := query.Get("date"); date != "" {
		req.Date = &date
	}
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}
	if activeOnly := query.Get("activeOnly"); activeOnly != "" {
		parsed, err := strconv.ParseBool(activeOnly)
		if err != nil {
			h.logger.Warn("GET /agents/{id}/bookings - Invalid activeOnly flag: agent_id=%d, value=%s", agentID, activeOnly)
			handlers.RespondBadRequest(w, msgInvalidFilter)
			return
		}
		req.ActiveOnly = parsed
	}

	result, err := h.service.GetAgentBookings(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /agents/{id}/bookings - Access denied: agent_id=%d, user_id=%d", agentID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /agents/{id}/bookings - Invalid input: agent_id=%d, error=%v", agentID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		default:
			h.logger.Error("GET /agents/{id}/bookings - Failed to get bookings: agent_id=%d, error=%v", agentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /agents/{id}/bookings - Bookings retrieved successfully: agent_id=%d, count=%d",
		agentID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
