package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	ClientID   int64     // ID клиента (переопределения цен и блок-лист агентов)
	ServiceIDs []string  // Услуги будущего заказа, задают длительность слота
	Date       time.Time // Дата, на которую запрашиваются слоты (без времени)
	Lat        float64   // Координаты объекта съёмки
	Lng        float64
}

// AgentSlots свободные слоты одного пригодного агента
type AgentSlots struct {
	AgentID    int64
	AgentName  string
	DistanceKm float64            // расстояние от базы агента до точки поиска
	Slots      []types.TimeString // свободные времена начала
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            time.Time          // Дата, на которую запрашивались слоты
	DurationMinutes int                // Длительность заказа по каталогу
	Agents          []AgentSlots       // Слоты каждого пригодного агента
	Slots           []types.TimeString // Объединённый отсортированный список времён
}
