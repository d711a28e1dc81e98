package create_booking

import "errors"

var (
	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("create_booking: client not found")

	// ErrNoEligibleAgent возвращается, когда ни один агент не может
	// взять заказ — штатный отказ, бронирование не создаётся
	ErrNoEligibleAgent = errors.New("create_booking: no eligible agent")

	// ErrCouponInvalid возвращается, когда купон не прошёл валидацию
	ErrCouponInvalid = errors.New("create_booking: coupon is invalid")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrInvalidTimeSlot возвращается при некорректном времени начала
	ErrInvalidTimeSlot = errors.New("create_booking: invalid start time")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
