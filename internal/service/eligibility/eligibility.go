package eligibility

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// SearchOrigin определяет точку, от которой измеряется близость агента.
//
// По умолчанию это координаты объекта съёмки. Если заказ включает
// псевдоуслугу получения ключей и у клиента есть геокодированный адрес,
// то поиск ведётся от адреса клиента — ключи забираются именно там.
// Без геокодированного адреса клиента используется адрес объекта.
func SearchOrigin(serviceIDs []string, jobSite domain.Coordinates, client *domain.Client) domain.Coordinates {
	for _, id := range serviceIDs {
		if id == domain.ServiceKeyPickup {
			if client != nil && client.Coords != nil {
				return *client.Coords
			}
			return jobSite
		}
	}
	return jobSite
}

// EligibleAgents фильтрует пул агентов для заказа.
//
// Порядок проверок (агент должен пройти все):
//  1. Агент активен.
//  2. Агент не в блок-листе клиента.
//  3. У агента заданы базовые координаты и непустой список услуг.
//  4. Агент поддерживает все основные услуги заказа (сквозные сборы
//     deslocamento и taxa_flash в проверку не входят).
//  5. Расстояние от точки поиска до базы агента не превышает его радиус.
//
// Порядок входного списка сохраняется — на нём строится стабильный
// выбор при равных очках в назначении.
func EligibleAgents(
	agents []*domain.Agent,
	serviceIDs []string,
	jobSite domain.Coordinates,
	client *domain.Client,
) []*domain.Agent {
	origin := SearchOrigin(serviceIDs, jobSite, client)
	essential := domain.EssentialServiceIDs(serviceIDs)

	eligible := make([]*domain.Agent, 0, len(agents))
	for _, agent := range agents {
		if !agent.Active {
			continue
		}

		if client != nil && client.HasBlocked(agent.ID) {
			continue
		}

		if agent.Base == nil || len(agent.ServiceIDs) == 0 {
			continue
		}

		if !agent.SupportsAll(essential) {
			continue
		}

		if domain.DistanceKm(*agent.Base, origin) > agent.RadiusKm {
			continue
		}

		eligible = append(eligible, agent)
	}

	return eligible
}
