package finalize_draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/pkg/ptr"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

var (
	jobSite = domain.Coordinates{Lat: 38.7223, Lng: -9.1393}
	testNow = time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC) // вторник
)

// Фейки

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
	updated  []*domain.Booking
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBookingRepo) GetByAgentWithFilter(_ context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	for _, b := range f.bookings {
		if b.AgentID == nil || *b.AgentID != filter.AgentID {
			continue
		}
		if filter.ExcludeID != nil && b.ID == *filter.ExcludeID {
			continue
		}
		if filter.ActiveOnly && !b.IsActive() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) Update(_ context.Context, b *domain.Booking) error {
	clone := *b
	f.bookings[b.ID] = &clone
	f.updated = append(f.updated, &clone)
	return nil
}

type fakeAgentRepo struct{ agents []*domain.Agent }

func (f *fakeAgentRepo) ListActive(_ context.Context) ([]*domain.Agent, error) { return f.agents, nil }
func (f *fakeAgentRepo) ListBlockedIntervals(_ context.Context, _ int64, _ time.Time) ([]*domain.BlockedTimeInterval, error) {
	return nil, nil
}

type fakeClientRepo struct{ clients map[int64]*domain.Client }

func (f *fakeClientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, clientRepo.ErrClientNotFound
	}
	return c, nil
}

type fakeCatalog struct{ catalog domain.Catalog }

func (f *fakeCatalog) GetServices(_ context.Context, _ []string) (domain.Catalog, error) {
	return f.catalog, nil
}

type fakeCoupons struct{ coupons map[string]*domain.Coupon }

func (f *fakeCoupons) GetCoupon(_ context.Context, code string) (*domain.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, assert.AnError
	}
	return c, nil
}

type fakeLedger struct {
	balance float64
	calls   int
}

func (f *fakeLedger) ApplyTransaction(_ context.Context, _ int64, amount float64, _ domain.TransactionType, _ string) (float64, error) {
	f.balance += amount
	f.calls++
	return f.balance, nil
}

type fakeEvents struct{ published []domain.OutboxEvent }

func (f *fakeEvents) Publish(_ context.Context, e domain.OutboxEvent) error {
	f.published = append(f.published, e)
	return nil
}

type nopTxManager struct{}

func (nopTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type assignmentCall struct {
	policy  string
	outcome string
}

type fakeMetrics struct {
	assignments []assignmentCall
}

func (f *fakeMetrics) IncAssignment(policy, outcome string) {
	f.assignments = append(f.assignments, assignmentCall{policy, outcome})
}

// Окружение

func draftBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		ClientID:   1,
		ServiceIDs: []string{"fotografia_imovel"},
		Address:    "Av. da Liberdade 10, Lisboa",
		Coords:     jobSite,
		Status:     domain.StatusDraft,
	}
}

func testAgent(id int64) *domain.Agent {
	return &domain.Agent{
		ID:         id,
		Active:     true,
		Base:       &domain.Coordinates{Lat: jobSite.Lat + 0.02, Lng: jobSite.Lng},
		RadiusKm:   30,
		ServiceIDs: []string{"fotografia_imovel", "video_imovel"},
		WeeklyTemplate: map[int][]types.TimeString{
			2: {"09:00", "11:00", "14:00"},
		},
	}
}

type env struct {
	uc     *UseCase
	repo   *fakeBookingRepo
	ledger *fakeLedger
	events *fakeEvents
}

func newEnv(bookings map[int64]*domain.Booking, agents ...*domain.Agent) *env {
	repo := &fakeBookingRepo{bookings: bookings}
	ledger := &fakeLedger{balance: 1000}
	events := &fakeEvents{}

	uc := NewUseCase(
		repo,
		&fakeAgentRepo{agents: agents},
		&fakeClientRepo{clients: map[int64]*domain.Client{
			1: {ID: 1, PaymentMode: domain.PaymentPrepaid, Balance: 1000},
		}},
		&fakeCatalog{catalog: domain.Catalog{
			"fotografia_imovel": {ID: "fotografia_imovel", ListPrice: 120, DurationMinutes: 60},
			"video_imovel":      {ID: "video_imovel", ListPrice: 200, DurationMinutes: 90},
		}},
		&fakeCoupons{coupons: map[string]*domain.Coupon{
			"DESC10": {Code: "DESC10", Type: domain.DiscountPercent, Value: 10},
		}},
		ledger,
		events,
		nopTxManager{},
		Config{FlashBufferMinutes: 60, LoadScoreWeight: 5, RevenueShare: 0.6, NegativeBalanceFloor: -500},
		nopLogger{},
	).WithTimeProvider(fixedClock{now: testNow})

	return &env{uc: uc, repo: repo, ledger: ledger, events: events}
}

// Тесты

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("финализация назначает агента и переводит в Pendente", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1)}, testAgent(7))

		resp, err := e.uc.Execute(ctx, &Request{
			BookingID: 1,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
		assert.Equal(t, int64(7), *resp.AgentID)
		assert.Equal(t, "2025-11-04", resp.Date)
		assert.Equal(t, "11:00", resp.StartTime)
		assert.Equal(t, "12:00", resp.EndTime)
		assert.Equal(t, 120.0, resp.TotalPrice)
		assert.Equal(t, 0, e.ledger.calls)
	})

	t.Run("дополнительные услуги сливаются и пересчитывают цену", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1)}, testAgent(7))

		resp, err := e.uc.Execute(ctx, &Request{
			BookingID:            1,
			AdditionalServiceIDs: []string{"video_imovel", "fotografia_imovel"},
			Date:                 ptr.Ptr("2025-11-04"),
			StartTime:            ptr.Ptr("11:00"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"fotografia_imovel", "video_imovel"}, resp.ServiceIDs)
		assert.Equal(t, 320.0, resp.TotalPrice)
		assert.Equal(t, 150, resp.DurationMinutes)
	})

	t.Run("автоподтверждение списывает деньги", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1)}, testAgent(7))

		resp, err := e.uc.Execute(ctx, &Request{
			BookingID:   1,
			Date:        ptr.Ptr("2025-11-04"),
			StartTime:   ptr.Ptr("11:00"),
			AutoConfirm: true,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		require.NotNil(t, resp.Wallet)
		assert.Equal(t, -120.0, resp.Wallet.Amount)
	})

	t.Run("купон запроса заменяет купон черновика", func(t *testing.T) {
		draft := draftBooking(1)
		e := newEnv(map[int64]*domain.Booking{1: draft}, testAgent(7))

		resp, err := e.uc.Execute(ctx, &Request{
			BookingID:  1,
			Date:       ptr.Ptr("2025-11-04"),
			StartTime:  ptr.Ptr("11:00"),
			CouponCode: ptr.Ptr("DESC10"),
		})
		require.NoError(t, err)
		assert.Equal(t, 108.0, resp.TotalPrice)
		assert.Equal(t, 12.0, resp.DiscountAmount)
	})

	t.Run("нет агента — черновик остаётся нетронутым", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1)}) // пул пуст

		_, err := e.uc.Execute(ctx, &Request{
			BookingID: 1,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		assert.ErrorIs(t, err, ErrNoEligibleAgent)

		stored := e.repo.bookings[1]
		assert.Equal(t, domain.StatusDraft, stored.Status)
		assert.Nil(t, stored.AgentID)
		assert.Empty(t, stored.History)
		assert.Empty(t, e.repo.updated)
	})

	t.Run("слот агента занят другим заказом — отказ", func(t *testing.T) {
		date := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)
		busy := &domain.Booking{
			ID: 2, ClientID: 5, AgentID: ptr.Ptr(int64(7)),
			Date: &date, StartTime: "11:00", DurationMinutes: 60,
			Status: domain.StatusConfirmed,
		}
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1), 2: busy}, testAgent(7))

		_, err := e.uc.Execute(ctx, &Request{
			BookingID: 1,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		assert.ErrorIs(t, err, ErrNoEligibleAgent)
	})

	t.Run("flash-черновик финализируется без даты", func(t *testing.T) {
		draft := draftBooking(1)
		draft.Flash = true
		e := newEnv(map[int64]*domain.Booking{1: draft}, testAgent(7))

		resp, err := e.uc.Execute(ctx, &Request{BookingID: 1})
		require.NoError(t, err)
		assert.Equal(t, "2025-11-04", resp.Date)
		// 09:00 + буфер час — берётся 11:00
		assert.Equal(t, "11:00", resp.StartTime)
	})

	t.Run("назначение попадает в метрики", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{1: draftBooking(1)}, testAgent(7))
		recorded := &fakeMetrics{}
		e.uc.WithMetrics(recorded)

		_, err := e.uc.Execute(ctx, &Request{
			BookingID: 1,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		require.NoError(t, err)
		assert.Equal(t, []assignmentCall{{"scheduled", "assigned"}}, recorded.assignments)
	})

	t.Run("flash-черновик без агентов пишет отказ в метрики", func(t *testing.T) {
		draft := draftBooking(1)
		draft.Flash = true
		e := newEnv(map[int64]*domain.Booking{1: draft}) // пул пуст
		recorded := &fakeMetrics{}
		e.uc.WithMetrics(recorded)

		_, err := e.uc.Execute(ctx, &Request{BookingID: 1})
		assert.ErrorIs(t, err, ErrNoEligibleAgent)
		assert.Equal(t, []assignmentCall{{"flash", "no_agent"}}, recorded.assignments)
	})

	t.Run("не-черновик отклоняется", func(t *testing.T) {
		b := draftBooking(1)
		b.Status = domain.StatusConfirmed
		e := newEnv(map[int64]*domain.Booking{1: b}, testAgent(7))

		_, err := e.uc.Execute(ctx, &Request{
			BookingID: 1,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		assert.ErrorIs(t, err, ErrNotDraft)
	})

	t.Run("неизвестное бронирование", func(t *testing.T) {
		e := newEnv(map[int64]*domain.Booking{}, testAgent(7))
		_, err := e.uc.Execute(ctx, &Request{
			BookingID: 9,
			Date:      ptr.Ptr("2025-11-04"),
			StartTime: ptr.Ptr("11:00"),
		})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestMergeServiceIDs(t *testing.T) {
	merged := mergeServiceIDs(
		[]string{"a", "b"},
		[]string{"b", "c", "a", "d"},
	)
	assert.Equal(t, []string{"a", "b", "c", "d"}, merged)
}
