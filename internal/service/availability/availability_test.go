package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/pkg/ptr"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// вторник
var testDate = time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)

func testAgent() *domain.Agent {
	return &domain.Agent{
		ID:     1,
		Active: true,
		WeeklyTemplate: map[int][]types.TimeString{
			2: {"09:00", "11:00", "14:00"}, // вторник
			4: {"10:00"},                   // четверг
		},
	}
}

func booking(id int64, date time.Time, start types.TimeString, duration int, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		Date:            &date,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          status,
	}
}

func TestCandidateSlots(t *testing.T) {
	agent := testAgent()

	t.Run("возвращает шаблон для настроенного дня", func(t *testing.T) {
		slots := CandidateSlots(agent, testDate)
		assert.Equal(t, []types.TimeString{"09:00", "11:00", "14:00"}, slots)
	})

	t.Run("пустой список для ненастроенного дня", func(t *testing.T) {
		monday := testDate.AddDate(0, 0, -1)
		assert.Empty(t, CandidateSlots(agent, monday))
	})

	t.Run("пусто тогда и только тогда, когда день не в шаблоне", func(t *testing.T) {
		for offset := 0; offset < 7; offset++ {
			date := testDate.AddDate(0, 0, offset)
			_, configured := agent.WeeklyTemplate[int(date.Weekday())]
			slots := CandidateSlots(agent, date)
			assert.Equal(t, configured, len(slots) > 0, "weekday=%d", date.Weekday())
		}
	})

	t.Run("результат не разделяет память с шаблоном", func(t *testing.T) {
		slots := CandidateSlots(agent, testDate)
		slots[0] = "00:00"
		assert.Equal(t, types.TimeString("09:00"), agent.WeeklyTemplate[2][0])
	})
}

func TestIsSlotFree_Bookings(t *testing.T) {
	existing := []*domain.Booking{
		booking(10, testDate, "10:00", 60, domain.StatusConfirmed), // 10:00-11:00
	}

	tests := []struct {
		name     string
		start    types.TimeString
		duration int
		want     bool
	}{
		{"пересечение в середине", "10:30", 60, false},
		{"новый накрывает существующий", "09:30", 120, false},
		{"граничат: новый заканчивается на начале", "09:00", 60, true},
		{"граничат: новый начинается на конце", "11:00", 60, true},
		{"полностью раньше", "08:00", 30, true},
		{"полностью позже", "12:00", 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSlotFree(existing, nil, testDate, tt.start, tt.duration, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSlotFree_IgnoresNonConflicting(t *testing.T) {
	otherDate := testDate.AddDate(0, 0, 1)

	t.Run("отменённое бронирование не занимает слот", func(t *testing.T) {
		existing := []*domain.Booking{
			booking(10, testDate, "10:00", 60, domain.StatusCancelled),
		}
		assert.True(t, IsSlotFree(existing, nil, testDate, "10:00", 60, nil))
	})

	t.Run("бронирование на другую дату не конфликтует", func(t *testing.T) {
		existing := []*domain.Booking{
			booking(10, otherDate, "10:00", 60, domain.StatusConfirmed),
		}
		assert.True(t, IsSlotFree(existing, nil, testDate, "10:00", 60, nil))
	})

	t.Run("черновик без расписания не конфликтует", func(t *testing.T) {
		draft := &domain.Booking{ID: 11, Status: domain.StatusDraft, DurationMinutes: 60}
		assert.True(t, IsSlotFree([]*domain.Booking{draft}, nil, testDate, "10:00", 60, nil))
	})

	t.Run("excludeID исключает собственное бронирование", func(t *testing.T) {
		existing := []*domain.Booking{
			booking(10, testDate, "10:00", 60, domain.StatusConfirmed),
		}
		assert.False(t, IsSlotFree(existing, nil, testDate, "10:00", 60, nil))
		assert.True(t, IsSlotFree(existing, nil, testDate, "10:00", 60, ptr.Ptr(int64(10))))
	})
}

func TestIsSlotFree_BlockedIntervals(t *testing.T) {
	blocked := []*domain.BlockedTimeInterval{
		{
			ID:       1,
			AgentID:  1,
			StartsAt: time.Date(2025, 11, 4, 13, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 11, 4, 15, 0, 0, 0, time.UTC),
			Reason:   "manutenção de equipamento",
		},
	}

	assert.False(t, IsSlotFree(nil, blocked, testDate, "14:00", 60, nil))
	assert.False(t, IsSlotFree(nil, blocked, testDate, "12:30", 60, nil))
	assert.True(t, IsSlotFree(nil, blocked, testDate, "15:00", 60, nil))
	assert.True(t, IsSlotFree(nil, blocked, testDate, "11:00", 120, nil))

	t.Run("блокировка на другую дату не мешает", func(t *testing.T) {
		otherDay := testDate.AddDate(0, 0, 2)
		assert.True(t, IsSlotFree(nil, blocked, otherDay, "14:00", 60, nil))
	})
}

func TestIsSlotFree_Pure(t *testing.T) {
	existing := []*domain.Booking{
		booking(10, testDate, "10:00", 60, domain.StatusConfirmed),
	}

	// многократный вызов даёт одинаковый результат и не мутирует вход
	for i := 0; i < 5; i++ {
		require.False(t, IsSlotFree(existing, nil, testDate, "10:30", 30, nil))
	}
	assert.Equal(t, types.TimeString("10:00"), existing[0].StartTime)
	assert.Equal(t, domain.StatusConfirmed, existing[0].Status)
}
