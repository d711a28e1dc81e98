package get_available_slots

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-DispatchService/internal/usecase/get_available_slots"
)

// AgentSlotsResponse свободные слоты одного агента
type AgentSlotsResponse struct {
	AgentID    int64    `json:"agentId"`
	AgentName  string   `json:"agentName"`
	DistanceKm float64  `json:"distanceKm"`
	Slots      []string `json:"slots"`
}

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string               `json:"date"`
	DurationMinutes int                  `json:"durationMinutes"`
	Agents          []AgentSlotsResponse `json:"agents"`
	Slots           []string             `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	agents := make([]AgentSlotsResponse, len(resp.Agents))
	for i, agent := range resp.Agents {
		slots := make([]string, len(agent.Slots))
		for j, slot := range agent.Slots {
			slots[j] = slot.String()
		}
		agents[i] = AgentSlotsResponse{
			AgentID:    agent.AgentID,
			AgentName:  agent.AgentName,
			DistanceKm: agent.DistanceKm,
			Slots:      slots,
		}
	}

	merged := make([]string, len(resp.Slots))
	for i, slot := range resp.Slots {
		merged[i] = slot.String()
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		DurationMinutes: resp.DurationMinutes,
		Agents:          agents,
		Slots:           merged,
	}
}
