package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	"github.com/m04kA/SMC-DispatchService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-DispatchService/internal/usecase/get_available_slots"
)

const (
	msgInvalidClientID  = "некорректный ID клиента"
	msgMissingServices  = "список услуг обязателен"
	msgMissingDate      = "дата обязательна"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidCoords    = "некорректные координаты объекта"
	msgDateInPast       = "дата в прошлом"
	msgClientNotFound   = "клиент не найден"
	msgInvalidInputData = "некорректные входные данные"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/available-slots
// Query params: clientId, services (comma-separated), date (YYYY-MM-DD), lat, lng
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	clientID, err := strconv.ParseInt(query.Get("clientId"), 10, 64)
	if err != nil || clientID <= 0 {
		h.logger.Warn("GET /available-slots - Invalid client ID: %q", query.Get("clientId"))
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	rawServices := query.Get("services")
	if rawServices == "" {
		h.logger.Warn("GET /available-slots - Missing services: client_id=%d", clientID)
		handlers.RespondBadRequest(w, msgMissingServices)
		return
	}
	serviceIDs := strings.Split(rawServices, ",")

	rawDate := query.Get("date")
	if rawDate == "" {
		h.logger.Warn("GET /available-slots - Missing date: client_id=%d", clientID)
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}
	date, err := time.Parse(domain.DateFormat, rawDate)
	if err != nil {
		h.logger.Warn("GET /available-slots - Invalid date %q: %v", rawDate, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		h.logger.Warn("GET /available-slots - Invalid coordinates: client_id=%d", clientID)
		handlers.RespondBadRequest(w, msgInvalidCoords)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		ClientID:   clientID,
		ServiceIDs: serviceIDs,
		Date:       date,
		Lat:        lat,
		Lng:        lng,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /available-slots - Invalid input: client_id=%d, error=%v", clientID, err)
			handlers.RespondBadRequest(w, msgInvalidInputData)

		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			h.logger.Warn("GET /available-slots - Date in past: client_id=%d, date=%s", clientID, rawDate)
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, getAvailableSlots.ErrClientNotFound):
			h.logger.Warn("GET /available-slots - Client not found: client_id=%d", clientID)
			handlers.RespondNotFound(w, msgClientNotFound)

		default:
			h.logger.Error("GET /available-slots - Failed to get slots: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /available-slots - %d agents with slots: client_id=%d, date=%s",
		len(result.Agents), clientID, rawDate)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
