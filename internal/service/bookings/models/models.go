package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidActor возвращается при некорректном инициаторе действия
	ErrInvalidActor = errors.New("invalid history actor")
)

// Request модели

// RescheduleRequest запрос на перенос бронирования
type RescheduleRequest struct {
	Date      string `json:"date"`      // "2025-11-04"
	StartTime string `json:"startTime"` // "10:00"
	Actor     string `json:"actor"`
	Note      string `json:"note,omitempty"`
}

// ReassignRequest запрос на замену агента (административный override,
// без повторной проверки пригодности)
type ReassignRequest struct {
	AgentID int64  `json:"agentId"`
	Actor   string `json:"actor"`
	Note    string `json:"note,omitempty"`
}

// EditServicesRequest запрос на изменение состава услуг
type EditServicesRequest struct {
	ServiceIDs   []string           `json:"serviceIds"`
	ManualPrices map[string]float64 `json:"manualPrices,omitempty"` // разовые цены оператора
	Actor        string             `json:"actor"`
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// CompleteSessionRequest отметка о проведённой съёмке
// Чаевые — сквозная бухгалтерия: в выплату агенту не входят
type CompleteSessionRequest struct {
	Actor     string   `json:"actor"`
	Note      string   `json:"note,omitempty"`
	TipAmount *float64 `json:"tipAmount,omitempty"`
}

// DeliverRequest сдача материала и завершение бронирования
type DeliverRequest struct {
	MaterialRefs []string `json:"materialRefs"`
	Actor        string   `json:"actor"`
	TipAmount    *float64 `json:"tipAmount,omitempty"`
}

// UpdateStatusRequest универсальный запрос на смену статуса
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Note   string `json:"note,omitempty"`
}

// GetClientBookingsRequest запрос истории бронирований клиента
// UserID — аутентифицированный пользователь из заголовка X-User-ID
type GetClientBookingsRequest struct {
	ClientID int64   `json:"clientId"`
	UserID   int64   `json:"-"`
	Status   *string `json:"status,omitempty"`
}

// GetAgentBookingsRequest запрос бронирований агента
// UserID — аутентифицированный пользователь из заголовка X-User-ID
type GetAgentBookingsRequest struct {
	AgentID    int64   `json:"agentId"`
	UserID     int64   `json:"-"`
	Date       *string `json:"date,omitempty"` // "2025-11-04"
	Status     *string `json:"status,omitempty"`
	ActiveOnly bool    `json:"activeOnly,omitempty"`
}

// Response модели

// HistoryEntryResponse строка журнала бронирования
type HistoryEntryResponse struct {
	At    time.Time `json:"at"`
	Actor string    `json:"actor"`
	Note  string    `json:"note"`
}

// WalletImpact описывает движение по кошельку, вызванное операцией
type WalletImpact struct {
	Amount     float64 `json:"amount"`
	Type       string  `json:"type"`
	NewBalance float64 `json:"newBalance"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"clientId"`
	AgentID  *int64 `json:"agentId,omitempty"`

	ServiceIDs []string `json:"serviceIds"`

	Date            *string `json:"date,omitempty"`      // "2025-11-04"
	StartTime       *string `json:"startTime,omitempty"` // "10:00"
	EndTime         *string `json:"endTime,omitempty"`
	DurationMinutes int     `json:"durationMinutes"`

	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	Status string `json:"status"`

	TotalPrice     float64 `json:"totalPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	CouponCode     *string `json:"couponCode,omitempty"`
	AgentPayout    float64 `json:"agentPayout"`
	TipAmount      float64 `json:"tipAmount"`
	PaidToAgent    bool    `json:"paidToAgent"`

	Flash              bool `json:"flash"`
	AccompaniedViewing bool `json:"accompaniedViewing"`
	KeyPickup          bool `json:"keyPickup"`

	MaterialRefs []string               `json:"materialRefs,omitempty"`
	History      []HistoryEntryResponse `json:"history"`

	Wallet *WalletImpact `json:"wallet,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// ToDomainBookingStatus конвертирует строку в domain статус
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(s)
	for _, valid := range domain.ValidStatuses {
		if status == valid {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// ToDomainActor конвертирует строку в domain инициатора
func ToDomainActor(s string) (domain.HistoryActor, error) {
	switch actor := domain.HistoryActor(s); actor {
	case domain.ActorClient, domain.ActorAgent, domain.ActorManager, domain.ActorSystem:
		return actor, nil
	default:
		return "", ErrInvalidActor
	}
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		AgentID:            b.AgentID,
		ServiceIDs:         b.ServiceIDs,
		DurationMinutes:    b.DurationMinutes,
		Address:            b.Address,
		Lat:                b.Coords.Lat,
		Lng:                b.Coords.Lng,
		Status:             string(b.Status),
		TotalPrice:         b.TotalPrice,
		DiscountAmount:     b.DiscountAmount,
		CouponCode:         b.CouponCode,
		AgentPayout:        b.AgentPayout,
		TipAmount:          b.TipAmount,
		PaidToAgent:        b.PaidToAgent,
		Flash:              b.Flash,
		AccompaniedViewing: b.AccompaniedViewing,
		KeyPickup:          b.KeyPickup,
		MaterialRefs:       b.MaterialRefs,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.Date != nil {
		date := b.Date.Format(domain.DateFormat)
		resp.Date = &date
	}
	if !b.StartTime.IsZero() {
		start := b.StartTime.String()
		resp.StartTime = &start
		if end, err := b.EndTime(); err == nil {
			endStr := end.String()
			resp.EndTime = &endStr
		}
	}

	resp.History = make([]HistoryEntryResponse, 0, len(b.History))
	for _, entry := range b.History {
		resp.History = append(resp.History, HistoryEntryResponse{
			At:    entry.At,
			Actor: string(entry.Actor),
			Note:  entry.Note,
		})
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, *FromDomainBooking(b))
	}
	return resp
}
