package domain

// Reserved pass-through pseudo-service ids. These are fees charged to the
// client and reimbursed to the agent at exactly the charged price.
const (
	ServiceTravelFee = "deslocamento"
	ServiceFlashFee  = "taxa_flash"
)

// ServiceKeyPickup is the pseudo-service that shifts the eligibility
// search origin to the client's address (keys are collected there).
const ServiceKeyPickup = "retirada_chaves"

// Fallback prices for the reserved pass-through ids when the catalog has
// no entry and the client has no override.
const (
	FallbackTravelFeePrice = 25.0
	FallbackFlashFeePrice  = 50.0
)

// ServiceCatalogEntry is immutable reference data owned by the catalog
// service and consumed read-only by the engine.
type ServiceCatalogEntry struct {
	ID              string
	Name            string
	DurationMinutes int
	ListPrice       float64
	Category        string
	ClientVisible   bool
}

// Catalog is a lookup of catalog entries by service id.
type Catalog map[string]ServiceCatalogEntry

// Get returns the catalog entry for a service id.
func (c Catalog) Get(serviceID string) (ServiceCatalogEntry, bool) {
	entry, ok := c[serviceID]
	return entry, ok
}

// TotalDuration sums the durations of the given service ids.
// Unknown ids (including the zero-duration pass-through fees) add nothing.
func (c Catalog) TotalDuration(serviceIDs []string) int {
	total := 0
	for _, id := range serviceIDs {
		if entry, ok := c[id]; ok {
			total += entry.DurationMinutes
		}
	}
	return total
}

// IsPassThrough reports whether the id is a reserved pass-through fee.
func IsPassThrough(serviceID string) bool {
	return serviceID == ServiceTravelFee || serviceID == ServiceFlashFee
}

// EssentialServiceIDs strips pass-through fee pseudo-services from the
// request: capability checks apply only to real on-site work.
func EssentialServiceIDs(serviceIDs []string) []string {
	essential := make([]string, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		if !IsPassThrough(id) {
			essential = append(essential, id)
		}
	}
	return essential
}

// FallbackPrice returns the hardcoded fallback price for reserved ids,
// 0 for everything else.
func FallbackPrice(serviceID string) float64 {
	switch serviceID {
	case ServiceTravelFee:
		return FallbackTravelFeePrice
	case ServiceFlashFee:
		return FallbackFlashFeePrice
	default:
		return 0
	}
}
