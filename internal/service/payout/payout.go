package payout

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/pricing"
)

// Calculate считает выплату агенту по списку услуг заказа.
//
// Правила по каждой услуге:
//   - сквозные сборы (deslocamento, taxa_flash) возмещаются агенту ровно
//     по цене, которую заплатил клиент (индивидуальная цена → каталог → фолбэк);
//   - остальные услуги: персональная ставка агента, если задана,
//     иначе revenueShare от прайса каталога.
//
// Без назначенного агента выплата всегда 0. Чистая функция — пересчитывается
// при любом изменении состава услуг, агента или цен клиента.
func Calculate(
	serviceIDs []string,
	client *domain.Client,
	agent *domain.Agent,
	catalog domain.Catalog,
	revenueShare float64,
) float64 {
	if agent == nil {
		return 0
	}

	if revenueShare <= 0 || revenueShare > 1 {
		revenueShare = domain.DefaultRevenueShare
	}

	total := 0.0
	for _, id := range serviceIDs {
		if domain.IsPassThrough(id) {
			total += pricing.ResolvePrice(id, client, catalog)
			continue
		}

		if rate, ok := agent.RateFor(id); ok {
			total += rate
			continue
		}

		if entry, ok := catalog.Get(id); ok {
			total += revenueShare * entry.ListPrice
		}
	}

	return total
}
