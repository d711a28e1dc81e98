package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/pkg/ptr"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

var (
	jobSite = domain.Coordinates{Lat: 38.7223, Lng: -9.1393}
	// вторник
	testNow = time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC)
)

// Фейки

type fakeBookingRepo struct {
	created  []*domain.Booking
	existing []*domain.Booking
	nextID   int64
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	stored := *b
	if f.nextID == 0 {
		f.nextID = 1
	}
	stored.ID = f.nextID
	f.nextID++
	f.created = append(f.created, &stored)
	return &stored, nil
}

func (f *fakeBookingRepo) GetByAgentWithFilter(_ context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	for _, b := range f.existing {
		if b.AgentID != nil && *b.AgentID == filter.AgentID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeAgentRepo struct {
	agents []*domain.Agent
}

func (f *fakeAgentRepo) ListActive(_ context.Context) ([]*domain.Agent, error) {
	return f.agents, nil
}

func (f *fakeAgentRepo) ListBlockedIntervals(_ context.Context, _ int64, _ time.Time) ([]*domain.BlockedTimeInterval, error) {
	return nil, nil
}

type fakeClientRepo struct {
	clients map[int64]*domain.Client
}

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
		return nil, domainCouponNotFound
	}
	return c, nil
}

var domainCouponNotFound = assert.AnError

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

type env struct {
	uc      *UseCase
	repo    *fakeBookingRepo
	ledger  *fakeLedger
	events  *fakeEvents
	clients *fakeClientRepo
}

func nearAgent(id int64, distanceKm float64) *domain.Agent {
	return &domain.Agent{
		ID:         id,
		Active:     true,
		Base:       &domain.Coordinates{Lat: jobSite.Lat + distanceKm/111.0, Lng: jobSite.Lng},
		RadiusKm:   30,
		ServiceIDs: []string{"fotografia_imovel", "video_imovel"},
		WeeklyTemplate: map[int][]types.TimeString{
			2: {"09:00", "11:00", "14:00"}, // вторник
		},
	}
}

func newEnv(agents ...*domain.Agent) *env {
	repo := &fakeBookingRepo{}
	ledger := &fakeLedger{balance: 1000}
	events := &fakeEvents{}
	clients := &fakeClientRepo{clients: map[int64]*domain.Client{
		1: {ID: 1, PaymentMode: domain.PaymentPrepaid, Balance: 1000},
		2: {ID: 2, PaymentMode: domain.PaymentPostpaid},
	}}

	uc := NewUseCase(
		repo,
		&fakeAgentRepo{agents: agents},
		clients,
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

	return &env{uc: uc, repo: repo, ledger: ledger, events: events, clients: clients}
}

func scheduledRequest(clientID int64) *Request {
	return &Request{
		ClientID:   clientID,
		ServiceIDs: []string{"fotografia_imovel"},
		Date:       ptr.Ptr("2025-11-04"),
		StartTime:  ptr.Ptr("11:00"),
		Address:    "Av. da Liberdade 10, Lisboa",
		Lat:        jobSite.Lat,
		Lng:        jobSite.Lng,
	}
}

// Тесты

func TestExecute_Scheduled(t *testing.T) {
	ctx := context.Background()

	t.Run("prepaid без автоподтверждения — Pendente, без списания", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		resp, err := e.uc.Execute(ctx, scheduledRequest(1))
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
		assert.Equal(t, int64(1), *resp.AgentID)
		assert.Equal(t, 120.0, resp.TotalPrice)
		assert.InDelta(t, 72.0, resp.AgentPayout, 1e-9)
		assert.Equal(t, 0, e.ledger.calls)
		assert.Nil(t, resp.Wallet)
	})

	t.Run("prepaid с автоподтверждением — Confirmado и списание", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		req := scheduledRequest(1)
		req.AutoConfirm = true
		resp, err := e.uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		require.NotNil(t, resp.Wallet)
		assert.Equal(t, -120.0, resp.Wallet.Amount)
		assert.Equal(t, 880.0, resp.Wallet.NewBalance)
	})

	t.Run("postpaid — сразу Confirmado без списания", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		resp, err := e.uc.Execute(ctx, scheduledRequest(2))
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.Equal(t, 0, e.ledger.calls)
	})

	t.Run("загруженный ближний уступает свободному дальнему", func(t *testing.T) {
		busy := nearAgent(1, 1)
		free := nearAgent(2, 6)
		e := newEnv(busy, free)
		date := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)
		e.repo.existing = []*domain.Booking{
			{ID: 50, AgentID: ptr.Ptr(int64(1)), Date: &date, StartTime: "14:00", DurationMinutes: 60, Status: domain.StatusConfirmed},
			{ID: 51, AgentID: ptr.Ptr(int64(1)), Date: &date, StartTime: "09:00", DurationMinutes: 60, Status: domain.StatusConfirmed},
		}

		resp, err := e.uc.Execute(ctx, scheduledRequest(2))
		require.NoError(t, err)
		assert.Equal(t, int64(2), *resp.AgentID)
	})

	t.Run("купон уменьшает стоимость и списание", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		req := scheduledRequest(1)
		req.CouponCode = ptr.Ptr("DESC10")
		req.AutoConfirm = true
		resp, err := e.uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 108.0, resp.TotalPrice)
		assert.Equal(t, 12.0, resp.DiscountAmount)
		assert.Equal(t, -108.0, resp.Wallet.Amount)
	})

	t.Run("неизвестный купон отклоняется", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		req := scheduledRequest(1)
		req.CouponCode = ptr.Ptr("NADA")
		_, err := e.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrCouponInvalid)
	})

	t.Run("нет пригодных агентов — отказ без создания", func(t *testing.T) {
		e := newEnv() // пул пуст

		_, err := e.uc.Execute(ctx, scheduledRequest(1))
		assert.ErrorIs(t, err, ErrNoEligibleAgent)
		assert.Empty(t, e.repo.created)
	})

	t.Run("списание ниже предела публикует событие", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))
		e.ledger.balance = -450

		req := scheduledRequest(1)
		req.AutoConfirm = true
		_, err := e.uc.Execute(ctx, req)
		require.NoError(t, err)

		var found bool
		for _, event := range e.events.published {
			if event.Type == domain.EventWalletLimitExceeded {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestExecute_Draft(t *testing.T) {
	ctx := context.Background()
	e := newEnv() // черновику агенты не нужны

	resp, err := e.uc.Execute(ctx, &Request{
		ClientID:   1,
		ServiceIDs: []string{"fotografia_imovel"},
		Address:    "Av. da Liberdade 10, Lisboa",
		Lat:        jobSite.Lat,
		Lng:        jobSite.Lng,
		Draft:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDraft), resp.Status)
	assert.Nil(t, resp.AgentID)
	assert.Nil(t, resp.Date)
	assert.Equal(t, 120.0, resp.TotalPrice)
	assert.Equal(t, 0.0, resp.AgentPayout)
	assert.Equal(t, 0, e.ledger.calls)
}

func TestExecute_Flash(t *testing.T) {
	ctx := context.Background()

	t.Run("берёт первый слот сегодня после буфера", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))

		resp, err := e.uc.Execute(ctx, &Request{
			ClientID:   2,
			ServiceIDs: []string{"fotografia_imovel"},
			Address:    "Av. da Liberdade 10, Lisboa",
			Lat:        jobSite.Lat,
			Lng:        jobSite.Lng,
			Flash:      true,
		})
		require.NoError(t, err)
		// сейчас 09:00 + час буфера — слот 09:00 отпадает, берётся 11:00
		assert.Equal(t, "11:00", *resp.StartTime)
		assert.Equal(t, "2025-11-04", *resp.Date)
		assert.True(t, resp.Flash)
	})

	t.Run("нет слотов сегодня — отказ", func(t *testing.T) {
		agent := nearAgent(1, 2)
		agent.WeeklyTemplate = map[int][]types.TimeString{3: {"10:00"}} // только среда
		e := newEnv(agent)

		_, err := e.uc.Execute(ctx, &Request{
			ClientID:   2,
			ServiceIDs: []string{"fotografia_imovel"},
			Address:    "Av. da Liberdade 10, Lisboa",
			Lat:        jobSite.Lat,
			Lng:        jobSite.Lng,
			Flash:      true,
		})
		assert.ErrorIs(t, err, ErrNoEligibleAgent)
	})
}

func TestExecute_AssignmentMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("успешное назначение по расписанию", func(t *testing.T) {
		e := newEnv(nearAgent(1, 2))
		recorded := &fakeMetrics{}
		e.uc.WithMetrics(recorded)

		_, err := e.uc.Execute(ctx, scheduledRequest(1))
		require.NoError(t, err)
		assert.Equal(t, []assignmentCall{{"scheduled", "assigned"}}, recorded.assignments)
	})

	t.Run("flash без агентов пишет отказ", func(t *testing.T) {
		e := newEnv() // пул пуст
		recorded := &fakeMetrics{}
		e.uc.WithMetrics(recorded)

		_, err := e.uc.Execute(ctx, &Request{
			ClientID:   2,
			ServiceIDs: []string{"fotografia_imovel"},
			Address:    "Av. da Liberdade 10, Lisboa",
			Lat:        jobSite.Lat,
			Lng:        jobSite.Lng,
			Flash:      true,
		})
		assert.ErrorIs(t, err, ErrNoEligibleAgent)
		assert.Equal(t, []assignmentCall{{"flash", "no_agent"}}, recorded.assignments)
	})

	t.Run("черновик назначение не учитывает", func(t *testing.T) {
		e := newEnv()
		recorded := &fakeMetrics{}
		e.uc.WithMetrics(recorded)

		_, err := e.uc.Execute(ctx, &Request{
			ClientID:   1,
			ServiceIDs: []string{"fotografia_imovel"},
			Address:    "Av. da Liberdade 10, Lisboa",
			Lat:        jobSite.Lat,
			Lng:        jobSite.Lng,
			Draft:      true,
		})
		require.NoError(t, err)
		assert.Empty(t, recorded.assignments)
	})
}

func TestExecute_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(nearAgent(1, 2))

	t.Run("пустые услуги", func(t *testing.T) {
		req := scheduledRequest(1)
		req.ServiceIDs = nil
		_, err := e.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("дата в прошлом", func(t *testing.T) {
		req := scheduledRequest(1)
		req.Date = ptr.Ptr("2025-10-01")
		_, err := e.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("черновик не может быть flash", func(t *testing.T) {
		req := scheduledRequest(1)
		req.Draft = true
		req.Flash = true
		_, err := e.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("неизвестный клиент", func(t *testing.T) {
		req := scheduledRequest(99)
		_, err := e.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrClientNotFound)
	})
}
