package couponservice

import "errors"

var (
	// ErrCouponNotFound возвращается, когда купон не существует
	ErrCouponNotFound = errors.New("couponservice client: coupon not found")

	// ErrCouponExpired возвращается, когда срок действия купона истёк
	ErrCouponExpired = errors.New("couponservice client: coupon expired")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("couponservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("couponservice client: invalid response")
)
