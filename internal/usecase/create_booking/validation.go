package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}

	if req.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}

	if req.Draft && req.Flash {
		return fmt.Errorf("%w: draft cannot be flash", ErrInvalidInput)
	}

	// Черновик и flash живут без расписания; обычный заказ требует дату и время
	if !req.Draft && !req.Flash {
		if req.Date == nil {
			return fmt.Errorf("%w: date is required for scheduled booking", ErrInvalidInput)
		}
		if req.StartTime == nil {
			return fmt.Errorf("%w: startTime is required for scheduled booking", ErrInvalidInput)
		}
	}

	return nil
}

// parseSchedule разбирает дату и время запроса
func parseSchedule(req *Request, now time.Time) (time.Time, types.TimeString, error) {
	date, err := time.Parse(domain.DateFormat, *req.Date)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidDate, *req.Date)
	}

	if isDateInPast(date, now) {
		return time.Time{}, "", ErrInvalidDate
	}

	start, err := types.NewTimeStringFromString(*req.StartTime)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, *req.StartTime)
	}

	return date, start, nil
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	// Обнуляем время, чтобы сравнивать только даты
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return dateOnly.Before(nowOnly)
}
