package create_booking

import (
	"time"
)

// Request модель запроса на создание бронирования
type Request struct {
	ClientID   int64    // ID клиента
	ServiceIDs []string // Услуги, включая сквозные сборы

	Date      *string // Дата "2025-11-04"; nil для черновика и flash
	StartTime *string // Время начала "10:00"; nil для черновика и flash

	Address string  // Адрес объекта съёмки
	Lat     float64 // Координаты объекта
	Lng     float64

	CouponCode *string // Код купона (опционально)

	Draft              bool // Создать черновик без агента и расписания
	Flash              bool // Срочный заказ: ближайший агент сегодня
	AccompaniedViewing bool
	KeyPickup          bool // Близость меряется до адреса клиента

	AutoConfirm bool // prepaid: сразу Confirmado со списанием, иначе Pendente
}

// WalletImpact движение по кошельку при автоподтверждении
type WalletImpact struct {
	Amount     float64
	Type       string
	NewBalance float64
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID       int64
	ClientID int64
	AgentID  *int64 // nil для черновика

	ServiceIDs []string

	Date            *string // nil для черновика
	StartTime       *string
	EndTime         *string
	DurationMinutes int

	Address string
	Lat     float64
	Lng     float64

	Status string

	TotalPrice     float64
	DiscountAmount float64
	CouponCode     *string
	AgentPayout    float64

	Flash              bool
	AccompaniedViewing bool
	KeyPickup          bool

	Wallet *WalletImpact // nil, если списания не было

	CreatedAt time.Time
	UpdatedAt time.Time
}
