package finalize_draft

import (
	"time"

	finalizeDraft "github.com/m04kA/SMC-DispatchService/internal/usecase/finalize_draft"
)

// FinalizeDraftRequest HTTP request model
type FinalizeDraftRequest struct {
	AdditionalServiceIDs []string `json:"additionalServiceIds,omitempty"`

	Date      *string `json:"date,omitempty"`      // "2025-11-04", nil для flash-черновика
	StartTime *string `json:"startTime,omitempty"` // "10:00"

	CouponCode *string `json:"couponCode,omitempty"`

	AutoConfirm bool `json:"autoConfirm,omitempty"`
}

// WalletImpactResponse движение по кошельку при автоподтверждении
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

	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`

	Status string `json:"status"`

	TotalPrice     float64 `json:"totalPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	CouponCode     *string `json:"couponCode,omitempty"`
	AgentPayout    float64 `json:"agentPayout"`

	Wallet *WalletImpactResponse `json:"wallet,omitempty"`

	UpdatedAt string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *FinalizeDraftRequest) ToUseCaseRequest(bookingID int64) *finalizeDraft.Request {
	return &finalizeDraft.Request{
		BookingID:            bookingID,
		AdditionalServiceIDs: r.AdditionalServiceIDs,
		Date:                 r.Date,
		StartTime:            r.StartTime,
		CouponCode:           r.CouponCode,
		AutoConfirm:          r.AutoConfirm,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *finalizeDraft.Response) *BookingResponse {
	out := &BookingResponse{
		ID:              resp.ID,
		ClientID:        resp.ClientID,
		AgentID:         resp.AgentID,
		ServiceIDs:      resp.ServiceIDs,
		Date:            resp.Date,
		StartTime:       resp.StartTime,
		EndTime:         resp.EndTime,
		DurationMinutes: resp.DurationMinutes,
		Status:          resp.Status,
		TotalPrice:      resp.TotalPrice,
		DiscountAmount:  resp.DiscountAmount,
		CouponCode:      resp.CouponCode,
		AgentPayout:     resp.AgentPayout,
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
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
