package assignment

import (
	"errors"
	"sort"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/availability"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// ErrNoEligibleAgent — ни один кандидат не может взять заказ.
// Для create/finalize это штатный исход, а не низкоуровневая ошибка.
var ErrNoEligibleAgent = errors.New("no eligible agent for assignment")

// Candidate — агент вместе со срезом его расписания, по которому
// принимается решение о назначении
type Candidate struct {
	Agent    *domain.Agent
	Bookings []*domain.Booking
	Blocked  []*domain.BlockedTimeInterval
}

// SelectScheduled выбирает агента для заказа с известными датой и временем.
//
// Из кандидатов, у которых слот свободен, выбирается агент с минимальным
// счётом загрузки:
//
//	score = distanceKm(база, точка поиска) + weight * (число активных бронирований на дату)
//
// Счёт смещает выбор к ближайшему агенту, но штраф за загрузку
// распределяет заказы по пулу и не даёт заваливать одного агента.
// При равных счётах побеждает первый по порядку кандидатов (стабильно).
func SelectScheduled(
	candidates []Candidate,
	origin domain.Coordinates,
	date time.Time,
	start types.TimeString,
	durationMinutes int,
	excludeBookingID *int64,
	bookingWeight float64,
) (*domain.Agent, error) {
	var best *domain.Agent
	bestScore := 0.0

	for _, c := range candidates {
		if c.Agent == nil || c.Agent.Base == nil {
			continue
		}

		if !availability.IsSlotFree(c.Bookings, c.Blocked, date, start, durationMinutes, excludeBookingID) {
			continue
		}

		score := domain.DistanceKm(*c.Agent.Base, origin) +
			bookingWeight*float64(activeBookingsOn(c.Bookings, date, excludeBookingID))

		// Строго меньше: при равенстве остаётся более ранний кандидат
		if best == nil || score < bestScore {
			best = c.Agent
			bestScore = score
		}
	}

	if best == nil {
		return nil, ErrNoEligibleAgent
	}
	return best, nil
}

// SelectFlash выбирает агента и слот для срочного заказа «на сегодня».
//
// Кандидаты обходятся по возрастанию расстояния от базы до объекта.
// Для каждого берутся слоты шаблона на сегодня; подходит первый слот,
// начинающийся не раньше чем через bufferMinutes от текущего момента
// и свободный на всю длительность. Возвращается первая найденная пара
// агент/слот — ближайший агент побеждает, если вообще может взять заказ
// (first-fit, без глобальной оптимизации).
func SelectFlash(
	candidates []Candidate,
	jobSite domain.Coordinates,
	now time.Time,
	durationMinutes int,
	bufferMinutes int,
) (*domain.Agent, types.TimeString, error) {
	ordered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Agent == nil || c.Agent.Base == nil {
			continue
		}
		ordered = append(ordered, c)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return domain.DistanceKm(*ordered[i].Agent.Base, jobSite) <
			domain.DistanceKm(*ordered[j].Agent.Base, jobSite)
	})

	earliest := now.Hour()*60 + now.Minute() + bufferMinutes

	for _, c := range ordered {
		for _, slot := range availability.CandidateSlots(c.Agent, now) {
			slotStart, err := slot.Minutes()
			if err != nil {
				continue
			}
			if slotStart < earliest {
				continue
			}
			if !availability.IsSlotFree(c.Bookings, c.Blocked, now, slot, durationMinutes, nil) {
				continue
			}
			return c.Agent, slot, nil
		}
	}

	return nil, "", ErrNoEligibleAgent
}

// activeBookingsOn считает неотменённые бронирования агента на дату
func activeBookingsOn(bookings []*domain.Booking, date time.Time, excludeID *int64) int {
	count := 0
	for _, b := range bookings {
		if !b.IsActive() || !b.HasSchedule() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		y1, m1, d1 := b.Date.Date()
		y2, m2, d2 := date.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			count++
		}
	}
	return count
}
