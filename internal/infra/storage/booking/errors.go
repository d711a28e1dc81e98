package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")

	// ErrEncodeJSON возвращается при ошибке сериализации JSONB-колонок
	ErrEncodeJSON = errors.New("booking.repository: failed to encode json column")

	// ErrDecodeJSON возвращается при ошибке десериализации JSONB-колонок
	ErrDecodeJSON = errors.New("booking.repository: failed to decode json column")
)
