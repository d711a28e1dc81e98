package catalogservice

// Service модель услуги из CatalogService
type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	ListPrice       float64 `json:"list_price"`
	Category        string  `json:"category"`
	ClientVisible   bool    `json:"client_visible"`
}

// servicesResponse ответ эндпоинта выборки услуг
type servicesResponse struct {
	Services []Service `json:"services"`
}

// ErrorResponse модель ошибки от CatalogService
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
