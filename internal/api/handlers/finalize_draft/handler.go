package finalize_draft

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	finalizeDraft "github.com/m04kA/SMC-DispatchService/internal/usecase/finalize_draft"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidInput       = "некорректные входные данные"
	msgInvalidDate        = "некорректная дата бронирования"
	msgInvalidTimeSlot    = "некорректное время начала"
	msgNotFound           = "бронирование не найдено"
	msgNotDraft           = "бронирование не является черновиком"
	msgClientNotFound     = "клиент не найден"
	msgCouponInvalid      = "купон недействителен"
	msgNoEligibleAgent    = "нет доступного агента для заказа"
)

type Handler struct {
	useCase FinalizeDraftUseCase
	logger  Logger
}

func NewHandler(useCase FinalizeDraftUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/finalize
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/finalize - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req FinalizeDraftRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/finalize - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(bookingID))
	if err != nil {
		switch {
		case errors.Is(err, finalizeDraft.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/finalize - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, finalizeDraft.ErrInvalidDate):
			h.logger.Warn("POST /bookings/{id}/finalize - Invalid date: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, finalizeDraft.ErrInvalidTimeSlot):
			h.logger.Warn("POST /bookings/{id}/finalize - Invalid time slot: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, finalizeDraft.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/finalize - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, finalizeDraft.ErrNotDraft):
			h.logger.Warn("POST /bookings/{id}/finalize - Not a draft: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgNotDraft)

		case errors.Is(err, finalizeDraft.ErrClientNotFound):
			h.logger.Warn("POST /bookings/{id}/finalize - Client not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgClientNotFound)

		case errors.Is(err, finalizeDraft.ErrCouponInvalid):
			h.logger.Warn("POST /bookings/{id}/finalize - Coupon rejected: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondUnprocessable(w, msgCouponInvalid)

		case errors.Is(err, finalizeDraft.ErrNoEligibleAgent):
			h.logger.Warn("POST /bookings/{id}/finalize - No eligible agent: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgNoEligibleAgent)

		default:
			h.logger.Error("POST /bookings/{id}/finalize - Failed to finalize draft: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/finalize - Draft finalized successfully: booking_id=%d, status=%s",
		result.ID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
