package get_eligible_agents_for_swap

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	"github.com/m04kA/SMC-DispatchService/internal/service/optimizer"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
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

// Handle GET /api/v1/bookings/{bookingId}/eligible-agents
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /bookings/{id}/eligible-agents - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	agents, err := h.service.GetEligibleAgentsForSwap(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, optimizer.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id}/eligible-agents - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /bookings/{id}/eligible-agents - Failed to get candidates: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id}/eligible-agents - Candidates retrieved: booking_id=%d, count=%d",
		bookingID, len(agents))
	handlers.RespondJSON(w, http.StatusOK, FromDomainAgents(bookingID, agents))
}
