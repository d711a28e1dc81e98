package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

var testCatalog = domain.Catalog{
	"fotografia_imovel": {ID: "fotografia_imovel", ListPrice: 120, DurationMinutes: 60},
	"video_imovel":      {ID: "video_imovel", ListPrice: 200, DurationMinutes: 90},
	domain.ServiceTravelFee: {ID: domain.ServiceTravelFee, ListPrice: 30},
}

func TestResolvePrice(t *testing.T) {
	client := &domain.Client{
		ID: 1,
		PriceOverrides: map[string]float64{
			"fotografia_imovel": 100,
		},
	}

	t.Run("индивидуальная цена клиента важнее каталога", func(t *testing.T) {
		assert.Equal(t, 100.0, ResolvePrice("fotografia_imovel", client, testCatalog))
	})

	t.Run("без индивидуальной цены — прайс каталога", func(t *testing.T) {
		assert.Equal(t, 200.0, ResolvePrice("video_imovel", client, testCatalog))
	})

	t.Run("сквозной сбор из каталога, если там есть", func(t *testing.T) {
		assert.Equal(t, 30.0, ResolvePrice(domain.ServiceTravelFee, client, testCatalog))
	})

	t.Run("фолбэк для сквозных сборов вне каталога", func(t *testing.T) {
		assert.Equal(t, domain.FallbackFlashFeePrice, ResolvePrice(domain.ServiceFlashFee, client, testCatalog))
		assert.Equal(t, domain.FallbackTravelFeePrice, ResolvePrice(domain.ServiceTravelFee, nil, domain.Catalog{}))
	})

	t.Run("неизвестная услуга — ноль", func(t *testing.T) {
		assert.Equal(t, 0.0, ResolvePrice("tour_virtual", nil, testCatalog))
	})
}

func TestTotalPrice(t *testing.T) {
	client := &domain.Client{
		ID: 1,
		PriceOverrides: map[string]float64{
			"fotografia_imovel": 100,
		},
	}

	t.Run("сумма по всем услугам", func(t *testing.T) {
		total := TotalPrice([]string{"fotografia_imovel", "video_imovel"}, client, testCatalog, nil)
		assert.Equal(t, 300.0, total)
	})

	t.Run("ручная цена оператора важнее всего", func(t *testing.T) {
		total := TotalPrice(
			[]string{"fotografia_imovel", "video_imovel"},
			client,
			testCatalog,
			map[string]float64{"video_imovel": 150},
		)
		assert.Equal(t, 250.0, total)
	})
}

func TestApplyCoupon(t *testing.T) {
	t.Run("процентная скидка", func(t *testing.T) {
		total, discount := ApplyCoupon(200, &domain.Coupon{Type: domain.DiscountPercent, Value: 10})
		assert.Equal(t, 180.0, total)
		assert.Equal(t, 20.0, discount)
	})

	t.Run("фиксированная скидка", func(t *testing.T) {
		total, discount := ApplyCoupon(200, &domain.Coupon{Type: domain.DiscountFlat, Value: 50})
		assert.Equal(t, 150.0, total)
		assert.Equal(t, 50.0, discount)
	})

	t.Run("скидка не уводит итог ниже нуля", func(t *testing.T) {
		total, discount := ApplyCoupon(40, &domain.Coupon{Type: domain.DiscountFlat, Value: 100})
		assert.Equal(t, 0.0, total)
		assert.Equal(t, 40.0, discount)
	})

	t.Run("без купона без скидки", func(t *testing.T) {
		total, discount := ApplyCoupon(200, nil)
		assert.Equal(t, 200.0, total)
		assert.Equal(t, 0.0, discount)
	})

	t.Run("неизвестный тип скидки игнорируется", func(t *testing.T) {
		total, discount := ApplyCoupon(200, &domain.Coupon{Type: "mystery", Value: 50})
		assert.Equal(t, 200.0, total)
		assert.Equal(t, 0.0, discount)
	})
}
