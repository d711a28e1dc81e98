package finalize_draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/internal/service/assignment"
	"github.com/m04kA/SMC-DispatchService/internal/service/eligibility"
	"github.com/m04kA/SMC-DispatchService/internal/service/payout"
	"github.com/m04kA/SMC-DispatchService/internal/service/pricing"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Config параметры движка назначения
type Config struct {
	FlashBufferMinutes   int
	LoadScoreWeight      float64
	RevenueShare         float64
	NegativeBalanceFloor float64
}

// UseCase use case финализации черновика
//
// Сливает дополнительные услуги, заново выводит длительность и цену
// (включая купон), прогоняет пригодность и назначение по фиксированной
// локации черновика — исключая сам черновик из проверок конфликтов —
// и при отсутствии агента оставляет черновик нетронутым
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

// Execute выполняет use case финализации черновика
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("FinalizeDraft: booking id=%d, +%d services", req.BookingID, len(req.AdditionalServiceIDs))

	// 1. Валидация входных данных
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	// 2. Предварительное чтение черновика — внешние вызовы до транзакции
	draft, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("FinalizeDraft: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	if !draft.IsDraft() {
		uc.logger.Warn("FinalizeDraft: booking id=%d is %s, not a draft", req.BookingID, draft.Status)
		return nil, ErrNotDraft
	}

	if !draft.Flash {
		if req.Date == nil || req.StartTime == nil {
			return nil, fmt.Errorf("%w: date and startTime are required", ErrInvalidInput)
		}
	}

	// 3. Клиент
	client, err := uc.clientRepo.GetByID(ctx, draft.ClientID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("%w: failed to get client: %v", ErrInternal, err)
	}

	// 4. Слияние услуг без дублей
	services := mergeServiceIDs(draft.ServiceIDs, req.AdditionalServiceIDs)

	// 5. Каталог и купон
	catalog, err := uc.catalog.GetServices(ctx, services)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog lookup failed: %v", ErrInternal, err)
	}

	couponCode := draft.CouponCode
	if req.CouponCode != nil && *req.CouponCode != "" {
		couponCode = req.CouponCode
	}
	var coupon *domain.Coupon
	if couponCode != nil && *couponCode != "" {
		coupon, err = uc.coupons.GetCoupon(ctx, *couponCode)
		if err != nil {
			uc.logger.Warn("FinalizeDraft: coupon %q rejected: %v", *couponCode, err)
			return nil, fmt.Errorf("%w: %v", ErrCouponInvalid, err)
		}
	}

	// 6. Перевывод длительности и цены
	gross := pricing.TotalPrice(services, client, catalog, nil)
	total, discount := pricing.ApplyCoupon(gross, coupon)
	duration := catalog.TotalDuration(services)

	var (
		result *domain.Booking
		impact *WalletImpact
		events []domain.OutboxEvent
	)

	// 7. Назначение и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		impact = nil
		events = events[:0]

		// 7.1. Черновик под блокировкой: статус мог измениться
		locked, err := uc.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: failed to lock booking: %v", ErrInternal, err)
		}
		if !locked.IsDraft() {
			return ErrNotDraft
		}

		// 7.2. Пригодные агенты по фиксированной локации черновика
		agents, err := uc.agentRepo.ListActive(txCtx)
		if err != nil {
			return fmt.Errorf("%w: failed to list agents: %v", ErrInternal, err)
		}
		eligible := eligibility.EligibleAgents(agents, services, locked.Coords, client)
		if len(eligible) == 0 {
			return ErrNoEligibleAgent
		}

		// 7.3. Назначение: сам черновик исключается из проверок конфликтов
		var (
			agent *domain.Agent
			date  time.Time
			start types.TimeString
		)
		if locked.Flash {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			candidates, err := uc.buildCandidates(txCtx, eligible, today, &locked.ID)
			if err != nil {
				return err
			}
			agent, start, err = assignment.SelectFlash(candidates, locked.Coords, now, duration, uc.cfg.FlashBufferMinutes)
			if err != nil {
				if errors.Is(err, assignment.ErrNoEligibleAgent) {
					return ErrNoEligibleAgent
				}
				return fmt.Errorf("%w: flash assignment: %v", ErrInternal, err)
			}
			date = today
		} else {
			date, err = time.Parse(domain.DateFormat, *req.Date)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidDate, *req.Date)
			}
			start, err = types.NewTimeStringFromString(*req.StartTime)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidTimeSlot, *req.StartTime)
			}

			candidates, err := uc.buildCandidates(txCtx, eligible, date, &locked.ID)
			if err != nil {
				return err
			}
			origin := eligibility.SearchOrigin(services, locked.Coords, client)
			agent, err = assignment.SelectScheduled(candidates, origin, date, start, duration, &locked.ID, uc.cfg.LoadScoreWeight)
			if err != nil {
				if errors.Is(err, assignment.ErrNoEligibleAgent) {
					return ErrNoEligibleAgent
				}
				return fmt.Errorf("%w: scheduled assignment: %v", ErrInternal, err)
			}
		}

		// 7.4. Применяем финализацию
		locked.ServiceIDs = services
		locked.Date = &date
		locked.StartTime = start
		locked.DurationMinutes = duration
		locked.AgentID = &agent.ID
		locked.TotalPrice = total
		locked.DiscountAmount = discount
		locked.CouponCode = couponCode
		locked.AgentPayout = payout.Calculate(services, client, agent, catalog, uc.cfg.RevenueShare)

		if client.IsPrepaid() && !req.AutoConfirm {
			locked.Status = domain.StatusPending
		} else {
			locked.Status = domain.StatusConfirmed
		}
		locked.AppendHistory(now, domain.ActorClient,
			fmt.Sprintf("draft finalized, assigned to agent %d", agent.ID))

		// 7.5. prepaid Confirmado: списание в той же транзакции
		if locked.Status == domain.StatusConfirmed && client.IsPrepaid() && locked.TotalPrice > 0 {
			balance, err := uc.ledger.ApplyTransaction(txCtx, client.ID, -locked.TotalPrice,
				domain.TransactionDebit, fmt.Sprintf("booking confirmation, booking #%d", locked.ID))
			if err != nil {
				return fmt.Errorf("%w: wallet debit failed: %v", ErrInternal, err)
			}
			impact = &WalletImpact{Amount: -locked.TotalPrice, Type: string(domain.TransactionDebit), NewBalance: balance}
			if balance < uc.cfg.NegativeBalanceFloor {
				events = append(events, domain.OutboxEvent{
					Type:      domain.EventWalletLimitExceeded,
					BookingID: locked.ID,
					ClientID:  client.ID,
					Note:      fmt.Sprintf("balance %.2f below floor %.2f", balance, uc.cfg.NegativeBalanceFloor),
					CreatedAt: now,
				})
			}
		}

		if err := uc.bookingRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("%w: failed to update booking: %v", ErrInternal, err)
		}

		events = append(events, domain.OutboxEvent{
			Type:      domain.EventBookingNotification,
			BookingID: locked.ID,
			ClientID:  locked.ClientID,
			AgentID:   locked.AgentID,
			Note:      fmt.Sprintf("draft finalized with status %s", locked.Status),
			CreatedAt: now,
		})

		result = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoEligibleAgent) {
			uc.recordAssignment(draft.Flash, "no_agent")
		}
		return nil, err
	}

	uc.recordAssignment(draft.Flash, "assigned")

	// 8. События после коммита, fire-and-forget
	for _, event := range events {
		if err := uc.events.Publish(ctx, event); err != nil {
			uc.logger.Error("FinalizeDraft: failed to publish %s for booking id=%d: %v",
				event.Type, event.BookingID, err)
		}
	}

	uc.logger.Info("FinalizeDraft: booking id=%d finalized, status=%s", result.ID, result.Status)
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

// buildCandidates собирает срез расписания каждого пригодного агента
func (uc *UseCase) buildCandidates(ctx context.Context, eligible []*domain.Agent, date time.Time, excludeID *int64) ([]assignment.Candidate, error) {
	candidates := make([]assignment.Candidate, 0, len(eligible))
	for _, agent := range eligible {
		bookings, err := uc.bookingRepo.GetByAgentWithFilter(ctx, domain.AgentBookingsFilter{
			AgentID:    agent.ID,
			Date:       &date,
			ActiveOnly: true,
			ExcludeID:  excludeID,
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

// mergeServiceIDs сливает списки услуг, сохраняя порядок и убирая дубли
func mergeServiceIDs(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, id := range base {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	for _, id := range extra {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

// toResponse конвертирует domain модель в response
func toResponse(b *domain.Booking, impact *WalletImpact) *Response {
	resp := &Response{
		ID:              b.ID,
		ClientID:        b.ClientID,
		AgentID:         b.AgentID,
		ServiceIDs:      b.ServiceIDs,
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		TotalPrice:      b.TotalPrice,
		DiscountAmount:  b.DiscountAmount,
		CouponCode:      b.CouponCode,
		AgentPayout:     b.AgentPayout,
		Wallet:          impact,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.Date != nil {
		resp.Date = b.Date.Format(domain.DateFormat)
	}
	resp.StartTime = b.StartTime.String()
	if end, err := b.EndTime(); err == nil {
		resp.EndTime = end.String()
	}
	return resp
}
