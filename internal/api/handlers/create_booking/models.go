package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-DispatchService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ClientID   int64    `json:"clientId"`
	ServiceIDs []string `json:"serviceIds"`

	Date      *string `json:"date,omitempty"`      // "2025-11-04", nil для черновика и flash
	StartTime *string `json:"startTime,omitempty"` // "10:00"

	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	CouponCode *string `json:"couponCode,omitempty"`

	Draft              bool `json:"draft,omitempty"`
	Flash              bool `json:"flash,omitempty"`
	AccompaniedViewing bool `json:"accompaniedViewing,omitempty"`
	KeyPickup          bool `json:"keyPickup,omitempty"`
	AutoConfirm        bool `json:"autoConfirm,omitempty"`
}

// WalletImpactResponse движение по кошельку, вызванное созданием
type WalletImpactResponse struct {
	Amount     float64 `json:"amount"`
	Type       string  `json:"type"`
	NewBalance float64 `json:"newBalance"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"clientId"`
	AgentID  *int64 `json:"agentId,omitempty"`

	ServiceIDs []string `json:"serviceIds"`

	Date            *string `json:"date,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
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

	Flash              bool `json:"flash"`
	AccompaniedViewing bool `json:"accompaniedViewing"`
	KeyPickup          bool `json:"keyPickup"`

	Wallet *WalletImpactResponse `json:"wallet,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() *createBooking.Request {
	return &createBooking.Request{
		ClientID:           r.ClientID,
		ServiceIDs:         r.ServiceIDs,
		Date:               r.Date,
		StartTime:          r.StartTime,
		Address:            r.Address,
		Lat:                r.Lat,
		Lng:                r.Lng,
		CouponCode:         r.CouponCode,
		Draft:              r.Draft,
		Flash:              r.Flash,
		AccompaniedViewing: r.AccompaniedViewing,
		KeyPickup:          r.KeyPickup,
		AutoConfirm:        r.AutoConfirm,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:                 resp.ID,
		ClientID:           resp.ClientID,
		AgentID:            resp.AgentID,
		ServiceIDs:         resp.ServiceIDs,
		Date:               resp.Date,
		StartTime:          resp.StartTime,
		EndTime:            resp.EndTime,
		DurationMinutes:    resp.DurationMinutes,
		Address:            resp.Address,
		Lat:                resp.Lat,
		Lng:                resp.Lng,
		Status:             resp.Status,
		TotalPrice:         resp.TotalPrice,
		DiscountAmount:     resp.DiscountAmount,
		CouponCode:         resp.CouponCode,
		AgentPayout:        resp.AgentPayout,
		Flash:              resp.Flash,
		AccompaniedViewing: resp.AccompaniedViewing,
		KeyPickup:          resp.KeyPickup,
		CreatedAt:          resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          resp.UpdatedAt.Format(time.RFC3339),
	}

	if resp.Wallet != nil {
		out.Wallet = &WalletImpactResponse{
			Amount:     resp.Wallet.Amount,
			Type:       resp.Wallet.Type,
			NewBalance: resp.Wallet.NewBalance,
		}
	}

	return out
}
