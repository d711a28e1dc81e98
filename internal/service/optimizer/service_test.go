package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	agentRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/agent"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/pkg/ptr"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

var testDate = time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)

// Базы и объекты разнесены по широте: 1 градус ~ 111 км.
// Агент 1 живёт на севере, агент 2 на юге; заказы назначены накрест —
// обмен экономит почти весь пробег
var (
	northBase = domain.Coordinates{Lat: 39.50, Lng: -9.14}
	southBase = domain.Coordinates{Lat: 38.50, Lng: -9.14}
	northJob  = domain.Coordinates{Lat: 39.48, Lng: -9.14}
	southJob  = domain.Coordinates{Lat: 38.52, Lng: -9.14}
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) GetByDateAndStatus(_ context.Context, date time.Time, status domain.BookingStatus) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	// Стабильный порядок для детерминированных пар
	for id := int64(0); id < 100; id++ {
		b, ok := f.bookings[id]
		if !ok {
			continue
		}
		if b.Status == status && b.Date != nil && b.Date.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeAgentRepo struct {
	agents map[int64]*domain.Agent
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id int64) (*domain.Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return nil, agentRepo.ErrAgentNotFound
	}
	return a, nil
}

func (f *fakeAgentRepo) ListActive(_ context.Context) ([]*domain.Agent, error) {
	out := make([]*domain.Agent, 0)
	for id := int64(0); id < 100; id++ {
		if a, ok := f.agents[id]; ok && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeClientRepo struct{}

func (fakeClientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	return nil, clientRepo.ErrClientNotFound
}

type nopTxManager struct{}

func (nopTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (nopTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (nopTxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeMetrics struct {
	gauge []float64
}

func (f *fakeMetrics) SetSwapSuggestions(count float64) {
	f.gauge = append(f.gauge, count)
}

func swapBooking(id, agentID int64, start types.TimeString, job domain.Coordinates, services ...string) *domain.Booking {
	date := testDate
	if len(services) == 0 {
		services = []string{"fotografia_imovel"}
	}
	return &domain.Booking{
		ID:              id,
		ClientID:        1,
		AgentID:         ptr.Ptr(agentID),
		ServiceIDs:      services,
		Date:            &date,
		StartTime:       start,
		DurationMinutes: 60,
		Coords:          job,
		Status:          domain.StatusConfirmed,
	}
}

func swapAgent(id int64, base domain.Coordinates, services ...string) *domain.Agent {
	if len(services) == 0 {
		services = []string{"fotografia_imovel"}
	}
	return &domain.Agent{
		ID:         id,
		Active:     true,
		Base:       &base,
		RadiusKm:   500,
		ServiceIDs: services,
	}
}

func newService(bookings map[int64]*domain.Booking, agents map[int64]*domain.Agent) *Service {
	return NewService(
		&fakeBookingRepo{bookings: bookings},
		&fakeAgentRepo{agents: agents},
		fakeClientRepo{},
		nopTxManager{},
		5,
		nopLogger{},
	)
}

func TestFindRouteOptimizations(t *testing.T) {
	ctx := context.Background()

	t.Run("крест-накрест назначенные заказы дают предложение", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob), // северный агент едет на юг
			2: swapBooking(2, 2, "10:00", northJob), // южный агент едет на север
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)

		s := suggestions[0]
		assert.Equal(t, int64(1), s.BookingAID)
		assert.Equal(t, int64(2), s.BookingBID)
		assert.Equal(t, types.TimeString("10:00"), s.StartTime)
		// экономия ~2 * 107 км
		assert.Greater(t, s.DistanceSavedKm, 100.0)
	})

	t.Run("разное время начала — пары нет", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob),
			2: swapBooking(2, 2, "11:00", northJob),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("один и тот же агент — пары нет", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob),
			2: swapBooking(2, 1, "10:00", northJob),
		}
		agents := map[int64]*domain.Agent{1: swapAgent(1, northBase)}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("агент без компетенции блокирует обмен", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob, "video_imovel"),
			2: swapBooking(2, 2, "10:00", northJob),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			// агент 2 не умеет video_imovel и не может взять заказ 1
			2: swapAgent(2, southBase),
		}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("экономия ниже порога не предлагается", func(t *testing.T) {
		// Оба заказа почти в одной точке — выгоды от обмена нет
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", northJob),
			2: swapBooking(2, 2, "10:00", domain.Coordinates{Lat: 39.481, Lng: -9.14}),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("сквозные сборы не учитываются в компетенциях", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob, "fotografia_imovel", domain.ServiceTravelFee),
			2: swapBooking(2, 2, "10:00", northJob, "fotografia_imovel", domain.ServiceFlashFee),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}

		suggestions, err := newService(bookings, agents).FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Len(t, suggestions, 1)
	})

	t.Run("предложения идут по времени слота независимо от ID", func(t *testing.T) {
		// Ранний слот нарочно получил большие ID: порядок задаёт время,
		// а не порядок вставки
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "14:00", southJob),
			2: swapBooking(2, 2, "14:00", northJob),
			3: swapBooking(3, 1, "09:00", southJob),
			4: swapBooking(4, 2, "09:00", northJob),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}
		svc := newService(bookings, agents)

		first, err := svc.FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, types.TimeString("09:00"), first[0].StartTime)
		assert.Equal(t, int64(3), first[0].BookingAID)
		assert.Equal(t, types.TimeString("14:00"), first[1].StartTime)
		assert.Equal(t, int64(1), first[1].BookingAID)

		// Повторный запуск даёт тот же порядок
		for i := 0; i < 10; i++ {
			again, err := svc.FindRouteOptimizations(ctx, testDate)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("число предложений попадает в метрику", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", southJob),
			2: swapBooking(2, 2, "10:00", northJob),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, southBase),
		}
		recorded := &fakeMetrics{}
		svc := newService(bookings, agents).WithMetrics(recorded)

		_, err := svc.FindRouteOptimizations(ctx, testDate)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, recorded.gauge)

		// Пустой день обнуляет gauge
		_, err = svc.FindRouteOptimizations(ctx, testDate.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0}, recorded.gauge)
	})
}

func TestGetEligibleAgentsForSwap(t *testing.T) {
	ctx := context.Background()

	t.Run("возвращает пригодных агентов без текущего", func(t *testing.T) {
		bookings := map[int64]*domain.Booking{
			1: swapBooking(1, 1, "10:00", northJob),
		}
		agents := map[int64]*domain.Agent{
			1: swapAgent(1, northBase),
			2: swapAgent(2, northBase),
			3: swapAgent(3, southBase, "video_imovel"), // не умеет услугу заказа
		}

		eligible, err := newService(bookings, agents).GetEligibleAgentsForSwap(ctx, 1)
		require.NoError(t, err)
		require.Len(t, eligible, 1)
		assert.Equal(t, int64(2), eligible[0].ID)
	})

	t.Run("неизвестное бронирование", func(t *testing.T) {
		svc := newService(map[int64]*domain.Booking{}, map[int64]*domain.Agent{})
		_, err := svc.GetEligibleAgentsForSwap(ctx, 9)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}
