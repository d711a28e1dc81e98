package couponservice

// Coupon модель купона из CouponService
type Coupon struct {
	Code    string  `json:"code"`
	Type    string  `json:"type"` // "percent" или "flat"
	Value   float64 `json:"value"`
	Expired bool    `json:"expired"`
}

// ErrorResponse модель ошибки от CouponService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
