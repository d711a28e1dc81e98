package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-DispatchService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные входные данные"
	msgInvalidDate        = "некорректная дата бронирования"
	msgInvalidTimeSlot    = "некорректное время начала"
	msgClientNotFound     = "клиент не найден"
	msgCouponInvalid      = "купон недействителен"
	msgNoEligibleAgent    = "нет доступного агента для заказа"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: client_id=%d, error=%v", req.ClientID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /bookings - Invalid date: client_id=%d", req.ClientID)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings - Invalid time slot: client_id=%d", req.ClientID)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createBooking.ErrClientNotFound):
			h.logger.Warn("POST /bookings - Client not found: client_id=%d", req.ClientID)
			handlers.RespondNotFound(w, msgClientNotFound)

		case errors.Is(err, createBooking.ErrCouponInvalid):
			h.logger.Warn("POST /bookings - Coupon rejected: client_id=%d, error=%v", req.ClientID, err)
			handlers.RespondUnprocessable(w, msgCouponInvalid)

		case errors.Is(err, createBooking.ErrNoEligibleAgent):
			h.logger.Warn("POST /bookings - No eligible agent: client_id=%d", req.ClientID)
			handlers.RespondConflict(w, msgNoEligibleAgent)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: client_id=%d, error=%v", req.ClientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, client_id=%d, status=%s",
		result.ID, req.ClientID, result.Status)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
