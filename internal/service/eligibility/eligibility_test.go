package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// Центр Лиссабона и точки вокруг: ~11 км между центром и Синтрой
var (
	lisbonCenter = domain.Coordinates{Lat: 38.7223, Lng: -9.1393}
	nearCenter   = domain.Coordinates{Lat: 38.7300, Lng: -9.1450}
	sintra       = domain.Coordinates{Lat: 38.8029, Lng: -9.3817}
)

func eligibleAgent(id int64) *domain.Agent {
	return &domain.Agent{
		ID:         id,
		Active:     true,
		Base:       &domain.Coordinates{Lat: nearCenter.Lat, Lng: nearCenter.Lng},
		RadiusKm:   20,
		ServiceIDs: []string{"fotografia_imovel", "video_imovel", "planta_imovel"},
	}
}

func TestSearchOrigin(t *testing.T) {
	client := &domain.Client{
		ID:     1,
		Coords: &sintra,
	}

	t.Run("по умолчанию точка объекта", func(t *testing.T) {
		origin := SearchOrigin([]string{"fotografia_imovel"}, lisbonCenter, client)
		assert.Equal(t, lisbonCenter, origin)
	})

	t.Run("получение ключей переносит поиск на адрес клиента", func(t *testing.T) {
		origin := SearchOrigin([]string{"fotografia_imovel", domain.ServiceKeyPickup}, lisbonCenter, client)
		assert.Equal(t, sintra, origin)
	})

	t.Run("без геокодированного адреса клиента остаётся объект", func(t *testing.T) {
		noCoords := &domain.Client{ID: 2}
		origin := SearchOrigin([]string{domain.ServiceKeyPickup}, lisbonCenter, noCoords)
		assert.Equal(t, lisbonCenter, origin)

		origin = SearchOrigin([]string{domain.ServiceKeyPickup}, lisbonCenter, nil)
		assert.Equal(t, lisbonCenter, origin)
	})
}

func TestEligibleAgents_Filters(t *testing.T) {
	services := []string{"fotografia_imovel"}

	t.Run("подходящий агент проходит", func(t *testing.T) {
		agents := []*domain.Agent{eligibleAgent(1)}
		got := EligibleAgents(agents, services, lisbonCenter, nil)
		assert.Len(t, got, 1)
	})

	t.Run("неактивный отсеивается", func(t *testing.T) {
		agent := eligibleAgent(1)
		agent.Active = false
		got := EligibleAgents([]*domain.Agent{agent}, services, lisbonCenter, nil)
		assert.Empty(t, got)
	})

	t.Run("блок-лист клиента отсеивает", func(t *testing.T) {
		client := &domain.Client{ID: 7, BlockedAgentIDs: []int64{1}}
		got := EligibleAgents([]*domain.Agent{eligibleAgent(1), eligibleAgent(2)}, services, lisbonCenter, client)
		assert.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].ID)
	})

	t.Run("без базовых координат отсеивается", func(t *testing.T) {
		agent := eligibleAgent(1)
		agent.Base = nil
		got := EligibleAgents([]*domain.Agent{agent}, services, lisbonCenter, nil)
		assert.Empty(t, got)
	})

	t.Run("с пустым списком услуг отсеивается", func(t *testing.T) {
		agent := eligibleAgent(1)
		agent.ServiceIDs = nil
		got := EligibleAgents([]*domain.Agent{agent}, services, lisbonCenter, nil)
		assert.Empty(t, got)
	})

	t.Run("не поддерживающий основную услугу отсеивается", func(t *testing.T) {
		agent := eligibleAgent(1)
		got := EligibleAgents([]*domain.Agent{agent}, []string{"tour_virtual"}, lisbonCenter, nil)
		assert.Empty(t, got)
	})

	t.Run("сквозные сборы не требуют поддержки агентом", func(t *testing.T) {
		agent := eligibleAgent(1)
		withFees := []string{"fotografia_imovel", domain.ServiceTravelFee, domain.ServiceFlashFee}
		got := EligibleAgents([]*domain.Agent{agent}, withFees, lisbonCenter, nil)
		assert.Len(t, got, 1)
	})

	t.Run("вне радиуса отсеивается", func(t *testing.T) {
		agent := eligibleAgent(1)
		agent.RadiusKm = 1
		got := EligibleAgents([]*domain.Agent{agent}, services, sintra, nil)
		assert.Empty(t, got)
	})
}

func TestEligibleAgents_KeyPickupOverride(t *testing.T) {
	// База агента рядом с Синтрой: до объекта в центре Лиссабона не дотягивает,
	// но до адреса клиента (где лежат ключи) — в пределах радиуса
	agent := eligibleAgent(1)
	agent.Base = &domain.Coordinates{Lat: 38.8000, Lng: -9.3700}
	agent.RadiusKm = 5
	agent.ServiceIDs = append(agent.ServiceIDs, domain.ServiceKeyPickup)

	client := &domain.Client{ID: 3, Coords: &sintra}

	withoutKeys := EligibleAgents([]*domain.Agent{agent}, []string{"fotografia_imovel"}, lisbonCenter, client)
	assert.Empty(t, withoutKeys)

	withKeys := EligibleAgents(
		[]*domain.Agent{agent},
		[]string{"fotografia_imovel", domain.ServiceKeyPickup},
		lisbonCenter,
		client,
	)
	assert.Len(t, withKeys, 1)
}

func TestEligibleAgents_PreservesOrder(t *testing.T) {
	agents := []*domain.Agent{eligibleAgent(3), eligibleAgent(1), eligibleAgent(2)}
	got := EligibleAgents(agents, []string{"fotografia_imovel"}, lisbonCenter, nil)

	ids := make([]int64, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}
