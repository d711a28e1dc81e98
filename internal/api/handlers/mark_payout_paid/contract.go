package mark_payout_paid

import (
	"context"
)

type BookingService interface {
	MarkPayoutPaid(ctx context.Context, bookingID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
