package find_route_optimizations

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// SwapSuggestionResponse одна рекомендация по обмену агентами
type SwapSuggestionResponse struct {
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	BookingAID      int64   `json:"bookingAId"`
	BookingBID      int64   `json:"bookingBId"`
	AgentAID        int64   `json:"agentAId"`
	AgentBID        int64   `json:"agentBId"`
	DistanceSavedKm float64 `json:"distanceSavedKm"`
}

// RouteOptimizationsResponse ответ со списком рекомендаций
type RouteOptimizationsResponse struct {
	Date        string                   `json:"date"`
	Suggestions []SwapSuggestionResponse `json:"suggestions"`
}

// FromDomainSuggestions конвертирует доменные рекомендации в HTTP-ответ
func FromDomainSuggestions(date string, suggestions []domain.SwapSuggestion) *RouteOptimizationsResponse {
	resp := &RouteOptimizationsResponse{
		Date:        date,
		Suggestions: make([]SwapSuggestionResponse, 0, len(suggestions)),
	}
	for _, s := range suggestions {
		resp.Suggestions = append(resp.Suggestions, SwapSuggestionResponse{
			Date:            s.Date.Format("2006-01-02"),
			StartTime:       string(s.StartTime),
			BookingAID:      s.BookingAID,
			BookingBID:      s.BookingBID,
			AgentAID:        s.AgentAID,
			AgentBID:        s.AgentBID,
			DistanceSavedKm: s.DistanceSavedKm,
		})
	}
	return resp
}
