package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("client not found")

	// ErrAgentNotFound возвращается, когда агент не найден
	ErrAgentNotFound = errors.New("agent not found")

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalStatus возвращается при попытке изменить завершённое
	// или отменённое бронирование
	ErrTerminalStatus = errors.New("booking is in terminal status")

	// ErrDraftNotSchedulable возвращается при попытке перенести черновик:
	// у черновика нет расписания, его сначала финализируют
	ErrDraftNotSchedulable = errors.New("draft booking has no schedule")

	// ErrAccessDenied возвращается, когда у пользователя нет прав
	// доступа к бронированию
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
