package finalize_draft

import (
	"time"
)

// Request модель запроса на финализацию черновика
type Request struct {
	BookingID int64

	// AdditionalServiceIDs дополнительные услуги, сливаются с услугами
	// черновика без дублей
	AdditionalServiceIDs []string

	Date      *string // "2025-11-04"; nil для flash-черновика
	StartTime *string // "10:00"; nil для flash-черновика

	CouponCode *string // заменяет купон черновика, если указан

	AutoConfirm bool // prepaid: сразу Confirmado со списанием
}

// WalletImpact движение по кошельку при автоподтверждении
type WalletImpact struct {
	Amount     float64
	Type       string
	NewBalance float64
}

// Response модель ответа с финализированным бронированием
type Response struct {
	ID       int64
	ClientID int64
	AgentID  *int64

	ServiceIDs []string

	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int

	Status string

	TotalPrice     float64
	DiscountAmount float64
	CouponCode     *string
	AgentPayout    float64

	Wallet *WalletImpact

	UpdatedAt time.Time
}
