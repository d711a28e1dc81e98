package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/internal/service/assignment"
	"github.com/m04kA/SMC-DispatchService/internal/service/eligibility"
	"github.com/m04kA/SMC-DispatchService/internal/service/payout"
	"github.com/m04kA/SMC-DispatchService/internal/service/pricing"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Config параметры движка назначения
type Config struct {
	FlashBufferMinutes   int     // минимальный зазор до начала flash-слота
	LoadScoreWeight      float64 // штраф за бронирование в счёте загрузки
	RevenueShare         float64 // доля агента от прайса без персональной ставки
	NegativeBalanceFloor float64 // мягкий нижний предел баланса prepaid
}

// UseCase use case для создания бронирования
//
// Конвейер: валидация -> клиент и каталог -> цена с купоном ->
// пригодные агенты -> назначение (по расписанию или flash) ->
// выплата -> создание, и для prepaid Confirmado списание в той же
// сериализуемой транзакции
type UseCase struct {
	bookingRepo  BookingRepository
	agentRepo    AgentRepository
	clientRepo   ClientRepository
	catalog      CatalogClient
	coupons      CouponClient
	ledger       WalletLedger
	events       EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	cfg          Config
	metrics      Metrics
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	agentRepo AgentRepository,
	clientRepo ClientRepository,
	catalog CatalogClient,
	coupons CouponClient,
	ledger WalletLedger,
	events EventPublisher,
	txManager TransactionManager,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.FlashBufferMinutes <= 0 {
		cfg.FlashBufferMinutes = domain.DefaultFlashBufferMinutes
	}
	if cfg.LoadScoreWeight <= 0 {
		cfg.LoadScoreWeight = domain.DefaultLoadScoreBookingWeight
	}
	if cfg.RevenueShare <= 0 || cfg.RevenueShare > 1 {
		cfg.RevenueShare = domain.DefaultRevenueShare
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		agentRepo:    agentRepo,
		clientRepo:   clientRepo,
		catalog:      catalog,
		coupons:      coupons,
		ledger:       ledger,
		events:       events,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		cfg:          cfg,
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// WithMetrics подключает бизнес-метрики (опционально)
func (uc *UseCase) WithMetrics(m Metrics) *UseCase {
	uc.metrics = m
	return uc
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию для предотвращения гонки за слот
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%d, services=%d, draft=%t, flash=%t",
		req.ClientID, len(req.ServiceIDs), req.Draft, req.Flash)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем клиента
	client, err := uc.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			uc.logger.Warn("CreateBooking: client id=%d not found", req.ClientID)
			return nil, ErrClientNotFound
		}
		uc.logger.Error("CreateBooking: failed to get client id=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: failed to get client: %v", ErrInternal, err)
	}

	// 4. Каталог услуг заказа
	catalog, err := uc.catalog.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		uc.logger.Error("CreateBooking: catalog lookup failed: %v", err)
		return nil, fmt.Errorf("%w: catalog lookup failed: %v", ErrInternal, err)
	}

	// 5. Купон, если указан
	var coupon *domain.Coupon
	if req.CouponCode != nil && *req.CouponCode != "" {
		coupon, err = uc.coupons.GetCoupon(ctx, *req.CouponCode)
		if err != nil {
			uc.logger.Warn("CreateBooking: coupon %q rejected: %v", *req.CouponCode, err)
			return nil, fmt.Errorf("%w: %v", ErrCouponInvalid, err)
		}
	}

	// 6. Стоимость: разрешённые цены + скидка по купону
	gross := pricing.TotalPrice(req.ServiceIDs, client, catalog, nil)
	total, discount := pricing.ApplyCoupon(gross, coupon)
	duration := catalog.TotalDuration(req.ServiceIDs)

	jobSite := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}

	var (
		result *domain.Booking
		impact *WalletImpact
		events []domain.OutboxEvent
	)

	// 7. Операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		impact = nil
		events = events[:0]

		booking := &domain.Booking{
			ClientID:           req.ClientID,
			ServiceIDs:         req.ServiceIDs,
			DurationMinutes:    duration,
			Address:            req.Address,
			Coords:             jobSite,
			TotalPrice:         total,
			DiscountAmount:     discount,
			CouponCode:         req.CouponCode,
			Flash:              req.Flash,
			AccompaniedViewing: req.AccompaniedViewing,
			KeyPickup:          req.KeyPickup,
		}

		if req.Draft {
			// 7.1. Черновик: без агента и расписания
			booking.Status = domain.StatusDraft
			booking.AppendHistory(now, domain.ActorClient, "draft created")
		} else {
			// 7.2. Назначение агента
			agent, date, start, err := uc.assignAgent(txCtx, req, client, now, duration, jobSite)
			if err != nil {
				return err
			}

			booking.AgentID = &agent.ID
			booking.Date = &date
			booking.StartTime = start
			booking.AgentPayout = payout.Calculate(req.ServiceIDs, client, agent, catalog, uc.cfg.RevenueShare)

			// 7.3. Статус: postpaid или автоподтверждение -> Confirmado,
			// prepaid без него -> Pendente
			if client.IsPrepaid() && !req.AutoConfirm {
				booking.Status = domain.StatusPending
			} else {
				booking.Status = domain.StatusConfirmed
			}
			booking.AppendHistory(now, domain.ActorClient,
				fmt.Sprintf("created, assigned to agent %d", agent.ID))
		}

		// 7.4. Сохраняем бронирование
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 7.5. prepaid Confirmado: списание в той же транзакции
		if created.Status == domain.StatusConfirmed && client.IsPrepaid() && created.TotalPrice > 0 {
			balance, err := uc.ledger.ApplyTransaction(txCtx, client.ID, -created.TotalPrice,
				domain.TransactionDebit, fmt.Sprintf("booking confirmation, booking #%d", created.ID))
			if err != nil {
				uc.logger.Error("CreateBooking: debit failed for client=%d: %v", client.ID, err)
				return fmt.Errorf("%w: wallet debit failed: %v", ErrInternal, err)
			}
			impact = &WalletImpact{
				Amount:     -created.TotalPrice,
				Type:       string(domain.TransactionDebit),
				NewBalance: balance,
			}
			if balance < uc.cfg.NegativeBalanceFloor {
				events = append(events, domain.OutboxEvent{
					Type:      domain.EventWalletLimitExceeded,
					BookingID: created.ID,
					ClientID:  client.ID,
					Note:      fmt.Sprintf("balance %.2f below floor %.2f", balance, uc.cfg.NegativeBalanceFloor),
					CreatedAt: now,
				})
			}
		}

		if !created.IsDraft() {
			events = append(events, domain.OutboxEvent{
				Type:      domain.EventBookingNotification,
				BookingID: created.ID,
				ClientID:  created.ClientID,
				AgentID:   created.AgentID,
				Note:      fmt.Sprintf("booking created with status %s", created.Status),
				CreatedAt: now,
			})
		}

		result = created
		return nil
	})
	if err != nil {
		if !req.Draft && errors.Is(err, ErrNoEligibleAgent) {
			uc.recordAssignment(req.Flash, "no_agent")
		}
		return nil, err
	}

	if !req.Draft {
		uc.recordAssignment(req.Flash, "assigned")
	}

	// 8. События после коммита, fire-and-forget
	for _, event := range events {
		if err := uc.events.Publish(ctx, event); err != nil {
			uc.logger.Error("CreateBooking: failed to publish %s for booking id=%d: %v",
				event.Type, event.BookingID, err)
		}
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d status=%s", result.ID, result.Status)
	return toResponse(result, impact), nil
}

// recordAssignment учитывает исход назначения агента
func (uc *UseCase) recordAssignment(flash bool, outcome string) {
	if uc.metrics == nil {
		return
	}
	policy := "scheduled"
	if flash {
		policy = "flash"
	}
	uc.metrics.IncAssignment(policy, outcome)
}

// assignAgent выбирает агента по одной из двух политик
func (uc *UseCase) assignAgent(
	ctx context.Context,
	req *Request,
	client *domain.Client,
	now time.Time,
	duration int,
	jobSite domain.Coordinates,
) (*domain.Agent, time.Time, types.TimeString, error) {
	// Пул активных агентов, прошедших статический фильтр
	agents, err := uc.agentRepo.ListActive(ctx)
	if err != nil {
		return nil, time.Time{}, "", fmt.Errorf("%w: failed to list agents: %v", ErrInternal, err)
	}

	eligible := eligibility.EligibleAgents(agents, req.ServiceIDs, jobSite, client)
	if len(eligible) == 0 {
		uc.logger.Warn("CreateBooking: no eligible agents for client=%d", req.ClientID)
		return nil, time.Time{}, "", ErrNoEligibleAgent
	}

	if req.Flash {
		// Flash: ближайший агент со свободным слотом сегодня
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		candidates, err := uc.buildCandidates(ctx, eligible, today)
		if err != nil {
			return nil, time.Time{}, "", err
		}

		agent, slot, err := assignment.SelectFlash(candidates, jobSite, now, duration, uc.cfg.FlashBufferMinutes)
		if err != nil {
			if errors.Is(err, assignment.ErrNoEligibleAgent) {
				return nil, time.Time{}, "", ErrNoEligibleAgent
			}
			return nil, time.Time{}, "", fmt.Errorf("%w: flash assignment: %v", ErrInternal, err)
		}
		return agent, today, slot, nil
	}

	// Назначение по расписанию: минимальный счёт загрузки
	date, start, err := parseSchedule(req, now)
	if err != nil {
		return nil, time.Time{}, "", err
	}

	candidates, err := uc.buildCandidates(ctx, eligible, date)
	if err != nil {
		return nil, time.Time{}, "", err
	}

	origin := eligibility.SearchOrigin(req.ServiceIDs, jobSite, client)
	agent, err := assignment.SelectScheduled(candidates, origin, date, start, duration, nil, uc.cfg.LoadScoreWeight)
	if err != nil {
		if errors.Is(err, assignment.ErrNoEligibleAgent) {
			return nil, time.Time{}, "", ErrNoEligibleAgent
		}
		return nil, time.Time{}, "", fmt.Errorf("%w: scheduled assignment: %v", ErrInternal, err)
	}
	return agent, date, start, nil
}

// buildCandidates собирает срез расписания каждого пригодного агента
func (uc *UseCase) buildCandidates(ctx context.Context, eligible []*domain.Agent, date time.Time) ([]assignment.Candidate, error) {
	candidates := make([]assignment.Candidate, 0, len(eligible))
	for _, agent := range eligible {
		bookings, err := uc.bookingRepo.GetByAgentWithFilter(ctx, domain.AgentBookingsFilter{
			AgentID:    agent.ID,
			Date:       &date,
			ActiveOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load bookings for agent=%d: %v", ErrInternal, agent.ID, err)
		}

		blocked, err := uc.agentRepo.ListBlockedIntervals(ctx, agent.ID, date)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load blocked intervals for agent=%d: %v", ErrInternal, agent.ID, err)
		}

		candidates = append(candidates, assignment.Candidate{
			Agent:    agent,
			Bookings: bookings,
			Blocked:  blocked,
		})
	}
	return candidates, nil
}

// toResponse конвертирует domain модель в response
func toResponse(b *domain.Booking, impact *WalletImpact) *Response {
	resp := &Response{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		AgentID:            b.AgentID,
		ServiceIDs:         b.ServiceIDs,
		DurationMinutes:    b.DurationMinutes,
		Address:            b.Address,
		Lat:                b.Coords.Lat,
		Lng:                b.Coords.Lng,
		Status:             string(b.Status),
		TotalPrice:         b.TotalPrice,
		DiscountAmount:     b.DiscountAmount,
		CouponCode:         b.CouponCode,
		AgentPayout:        b.AgentPayout,
		Flash:              b.Flash,
		AccompaniedViewing: b.AccompaniedViewing,
		KeyPickup:          b.KeyPickup,
		Wallet:             impact,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.Date != nil {
		date := b.Date.Format(domain.DateFormat)
		resp.Date = &date
	}
	if !b.StartTime.IsZero() {
		start := b.StartTime.String()
		resp.StartTime = &start
		if end, err := b.EndTime(); err == nil {
			endStr := end.String()
			resp.EndTime = &endStr
		}
	}

	return resp
}
