package domain

// Default engine parameters. The config file may override the tunables;
// these are the values the product has always shipped with.
const (
	// DefaultRevenueShare is the agent's share of the catalog list price
	// when no per-service rate is configured.
	DefaultRevenueShare = 0.6

	// DefaultLoadScoreBookingWeight is the per-booking penalty in the
	// scheduled-assignment score: score = distanceKm + weight * bookings.
	DefaultLoadScoreBookingWeight = 5.0

	// DefaultFlashBufferMinutes is the minimum lead time for a flash slot.
	DefaultFlashBufferMinutes = 60

	// DefaultMinSwapSavingKm is the minimum combined travel saving for a
	// route-swap suggestion to be emitted.
	DefaultMinSwapSavingKm = 5.0
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
