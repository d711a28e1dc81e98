package get_eligible_agents_for_swap

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// EligibleAgentResponse агент, способный принять бронирование при обмене
type EligibleAgentResponse struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	ServiceIDs []string `json:"serviceIds"`
	RadiusKm   float64  `json:"radiusKm"`
}

// EligibleAgentsResponse ответ со списком кандидатов
type EligibleAgentsResponse struct {
	BookingID int64                   `json:"bookingId"`
	Agents    []EligibleAgentResponse `json:"agents"`
}

// FromDomainAgents конвертирует доменных агентов в HTTP-ответ
func FromDomainAgents(bookingID int64, agents []*domain.Agent) *EligibleAgentsResponse {
	resp := &EligibleAgentsResponse{
		BookingID: bookingID,
		Agents:    make([]EligibleAgentResponse, 0, len(agents)),
	}
	for _, a := range agents {
		resp.Agents = append(resp.Agents, EligibleAgentResponse{
			ID:         a.ID,
			Name:       a.Name,
			ServiceIDs: a.ServiceIDs,
			RadiusKm:   a.RadiusKm,
		})
	}
	return resp
}
