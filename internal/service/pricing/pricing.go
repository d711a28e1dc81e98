package pricing

import (
	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// ResolvePrice возвращает цену услуги для клиента.
//
// Приоритет источников: индивидуальная цена клиента → прайс каталога →
// зашитый фолбэк для двух зарезервированных сквозных сборов → 0
func ResolvePrice(serviceID string, client *domain.Client, catalog domain.Catalog) float64 {
	if client != nil {
		if price, ok := client.PriceOverride(serviceID); ok {
			return price
		}
	}

	if entry, ok := catalog.Get(serviceID); ok {
		return entry.ListPrice
	}

	return domain.FallbackPrice(serviceID)
}

// TotalPrice считает полную стоимость заказа по списку услуг.
//
// manualOverrides — разовые цены, заданные оператором при редактировании
// состава: они важнее любых других источников. Может быть nil.
func TotalPrice(
	serviceIDs []string,
	client *domain.Client,
	catalog domain.Catalog,
	manualOverrides map[string]float64,
) float64 {
	total := 0.0
	for _, id := range serviceIDs {
		if manualOverrides != nil {
			if price, ok := manualOverrides[id]; ok {
				total += price
				continue
			}
		}
		total += ResolvePrice(id, client, catalog)
	}
	return total
}

// ApplyCoupon применяет скидку к сумме заказа.
//
// Возвращает итог после скидки и размер скидки. Итог не опускается
// ниже нуля: флэт-купон больше суммы списывает ровно сумму.
// Купон nil — скидки нет.
func ApplyCoupon(total float64, coupon *domain.Coupon) (float64, float64) {
	if coupon == nil || total <= 0 {
		return total, 0
	}

	var discount float64
	switch coupon.Type {
	case domain.DiscountPercent:
		discount = total * coupon.Value / 100.0
	case domain.DiscountFlat:
		discount = coupon.Value
	default:
		return total, 0
	}

	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}

	return total - discount, discount
}
