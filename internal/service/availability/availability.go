package availability

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// CandidateSlots возвращает слоты агента на дату по его недельному шаблону
// Шаблон уже содержит времена начала слотов — список возвращается как есть,
// пустой, если день недели не настроен
func CandidateSlots(agent *domain.Agent, date time.Time) []types.TimeString {
	template := agent.TemplateFor(date)
	if len(template) == 0 {
		return []types.TimeString{}
	}

	slots := make([]types.TimeString, len(template))
	copy(slots, template)
	return slots
}

// IsSlotFree проверяет, свободен ли интервал [start, start+duration)
// у агента на указанную дату
//
// Интервал не должен пересекаться:
//   - с бронированиями агента на эту же дату (кроме отменённых и кроме
//     бронирования excludeID — конфликт с самим собой не считается);
//   - с ручными блокировками времени, чья дата (по началу интервала)
//     совпадает с запрошенной.
//
// Пересечение полуинтервалов: newStart < existingEnd && newEnd > existingStart
// Граничные случаи (конец одного == начало другого) пересечением не считаются
//
// Чистый предикат без побочных эффектов — безопасно вызывать многократно
// при переборе кандидатов
func IsSlotFree(
	bookings []*domain.Booking,
	blocked []*domain.BlockedTimeInterval,
	date time.Time,
	start types.TimeString,
	durationMinutes int,
	excludeID *int64,
) bool {
	newStart, err := start.Minutes()
	if err != nil {
		return false
	}
	newEnd := newStart + durationMinutes

	for _, b := range bookings {
		// Отменённые бронирования расписание не занимают
		if !b.IsActive() {
			continue
		}

		// Черновики и бронирования без расписания не конфликтуют
		if !b.HasSchedule() {
			continue
		}

		// Конфликт проверяется только в пределах одной даты
		if !isSameDay(*b.Date, date) {
			continue
		}

		// Исключаем само бронирование (повторная проверка при финализации черновика)
		if excludeID != nil && b.ID == *excludeID {
			continue
		}

		existingStart, err := b.StartTime.Minutes()
		if err != nil {
			continue
		}
		existingEnd := existingStart + b.DurationMinutes

		if newStart < existingEnd && newEnd > existingStart {
			return false
		}
	}

	for _, interval := range blocked {
		if !interval.OnDate(date) {
			continue
		}

		blockStart := interval.StartsAt.Hour()*60 + interval.StartsAt.Minute()
		blockEnd := interval.EndsAt.Hour()*60 + interval.EndsAt.Minute()

		if newStart < blockEnd && newEnd > blockStart {
			return false
		}
	}

	return true
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
