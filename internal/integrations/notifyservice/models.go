package notifyservice

import "time"

// Event модель события для NotifyService
type Event struct {
	Type      string    `json:"type"`
	BookingID int64     `json:"booking_id"`
	ClientID  int64     `json:"client_id"`
	AgentID   *int64    `json:"agent_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
