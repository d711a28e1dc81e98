package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/availability"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// freeSlotsForAgent возвращает времена начала из недельного шаблона агента,
// в которые помещается заказ указанной длительности
//
// Слот отбрасывается, если пересекается с активным бронированием или ручной
// блокировкой, либо начинается раньше minAllowed (запрос на сегодня)
func freeSlotsForAgent(
	agent *domain.Agent,
	bookings []*domain.Booking,
	blocked []*domain.BlockedTimeInterval,
	date time.Time,
	durationMinutes int,
	minAllowed *types.TimeString,
) []types.TimeString {
	candidates := availability.CandidateSlots(agent, date)

	free := make([]types.TimeString, 0, len(candidates))
	for _, slot := range candidates {
		if minAllowed != nil && slot.IsBefore(*minAllowed) {
			continue
		}
		if !availability.IsSlotFree(bookings, blocked, date, slot, durationMinutes, nil) {
			continue
		}
		free = append(free, slot)
	}

	return free
}

// mergeSlots собирает объединённый список времён начала по всем агентам,
// без дублей, по возрастанию
func mergeSlots(agents []AgentSlots) []types.TimeString {
	seen := make(map[types.TimeString]struct{})
	merged := make([]types.TimeString, 0)

	for _, a := range agents {
		for _, slot := range a.Slots {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			merged = append(merged, slot)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		mi, errI := merged[i].Minutes()
		mj, errJ := merged[j].Minutes()
		if errI != nil || errJ != nil {
			return merged[i] < merged[j]
		}
		return mi < mj
	})

	return merged
}
