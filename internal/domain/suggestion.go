package domain

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// SwapSuggestion proposes exchanging the agents of two same-slot bookings
// to reduce combined travel distance. Suggestions are transient advisory
// snapshots: they are never persisted and must be re-validated
// (capability + slot freedom) before a swap is applied.
type SwapSuggestion struct {
	Date      time.Time
	StartTime types.TimeString

	BookingAID int64
	BookingBID int64
	AgentAID   int64
	AgentBID   int64

	DistanceSavedKm float64
}
