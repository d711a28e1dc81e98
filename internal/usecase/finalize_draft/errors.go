package finalize_draft

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("finalize_draft: booking not found")

	// ErrNotDraft возвращается при попытке финализировать не-черновик
	ErrNotDraft = errors.New("finalize_draft: booking is not a draft")

	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("finalize_draft: client not found")

	// ErrNoEligibleAgent возвращается, когда ни один агент не может взять
	// заказ — черновик остаётся нетронутым
	ErrNoEligibleAgent = errors.New("finalize_draft: no eligible agent")

	// ErrCouponInvalid возвращается, когда купон не прошёл валидацию
	ErrCouponInvalid = errors.New("finalize_draft: coupon is invalid")

	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("finalize_draft: invalid booking date")

	// ErrInvalidTimeSlot возвращается при некорректном времени начала
	ErrInvalidTimeSlot = errors.New("finalize_draft: invalid start time")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("finalize_draft: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("finalize_draft: internal error")
)
