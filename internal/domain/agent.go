package domain

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Agent represents a field photographer available for dispatch.
// Weekly template and per-service rates are administrative data:
// the engine only reads them.
type Agent struct {
	ID     int64
	Name   string
	Active bool

	Base     *Coordinates // declared base of operations, nil = not dispatchable
	RadiusKm float64      // service radius around the base

	// ServiceIDs the agent is qualified to perform.
	ServiceIDs []string

	// Rates holds per-service payout overrides. A missing entry falls
	// back to the default revenue share of the catalog list price.
	Rates map[string]float64

	// WeeklyTemplate maps weekday (0=Sunday..6=Saturday) to the ordered
	// slot-start times the agent works that day. A missing weekday means
	// the agent takes no bookings on that day.
	WeeklyTemplate map[int][]types.TimeString

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supports reports whether the agent is qualified for the service id.
func (a *Agent) Supports(serviceID string) bool {
	for _, id := range a.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// SupportsAll reports whether the agent is qualified for every given id.
func (a *Agent) SupportsAll(serviceIDs []string) bool {
	for _, id := range serviceIDs {
		if !a.Supports(id) {
			return false
		}
	}
	return true
}

// TemplateFor returns the slot-start times for the weekday of date,
// in template order. Empty when the weekday is not configured.
func (a *Agent) TemplateFor(date time.Time) []types.TimeString {
	return a.WeeklyTemplate[int(date.Weekday())]
}

// RateFor returns the agent-specific payout rate for a service id.
func (a *Agent) RateFor(serviceID string) (float64, bool) {
	rate, ok := a.Rates[serviceID]
	return rate, ok
}

// BlockedTimeInterval is a manual or administrative hold on an agent's
// schedule. The engine never creates these; it only respects them.
type BlockedTimeInterval struct {
	ID       int64
	AgentID  int64
	StartsAt time.Time
	EndsAt   time.Time
	Reason   string
}

// OnDate reports whether the interval belongs to the given calendar day.
// The day is taken from the interval's start timestamp.
func (b *BlockedTimeInterval) OnDate(date time.Time) bool {
	y1, m1, d1 := b.StartsAt.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
