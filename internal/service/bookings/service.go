package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	agentRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/agent"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DispatchService/internal/service/payout"
	"github.com/m04kA/SMC-DispatchService/internal/service/pricing"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Config параметры жизненного цикла бронирований
type Config struct {
	// RevenueShare доля агента от прайса каталога без персональной ставки
	RevenueShare float64
	// NegativeBalanceFloor мягкий нижний предел баланса: списание ниже
	// предела проходит, но порождает событие wallet_limit_exceeded
	NegativeBalanceFloor float64
}

// Service жизненный цикл бронирований: переходы статусов с денежными
// побочными эффектами, мутации состава и расписания, журнал истории
//
// Каждая мутация выполняется в serializable транзакции: списание или
// возврат по кошельку атомарен с переходом статуса, который его породил.
// События (отчёты об опоздании, уведомления) публикуются после коммита
// и не влияют на исход операции
type Service struct {
	bookingRepo BookingRepository
	agentRepo   AgentRepository
	clientRepo  ClientRepository
	ledger      WalletLedger
	catalog     CatalogClient
	events      EventPublisher
	txManager   TransactionManager
	time        TimeProvider
	cfg         Config
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	agentRepo AgentRepository,
	clientRepo ClientRepository,
	ledger WalletLedger,
	catalog CatalogClient,
	events EventPublisher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	cfg Config,
	logger Logger,
) *Service {
	if cfg.RevenueShare <= 0 || cfg.RevenueShare > 1 {
		cfg.RevenueShare = domain.DefaultRevenueShare
	}
	return &Service{
		bookingRepo: bookingRepo,
		agentRepo:   agentRepo,
		clientRepo:  clientRepo,
		ledger:      ledger,
		catalog:     catalog,
		events:      events,
		txManager:   txManager,
		time:        timeProvider,
		cfg:         cfg,
		logger:      logger,
	}
}

// WithMetrics подключает бизнес-метрики (опционально)
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// Reschedule переносит бронирование на новые дату и время
//
// Пригодность агента заново не проверяется — это ответственность
// вызывающего. Перенос черновика невозможен: у черновика нет расписания
func (s *Service) Reschedule(ctx context.Context, bookingID int64, req *models.RescheduleRequest) (*models.BookingResponse, error) {
	s.logger.Info("Reschedule: booking id=%d to %s %s", bookingID, req.Date, req.StartTime)

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, req.Date)
	}

	start, err := parseStartTime(req.StartTime)
	if err != nil {
		return nil, err
	}

	var result *domain.Booking
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status.IsTerminal() {
			return ErrTerminalStatus
		}
		if booking.IsDraft() {
			return ErrDraftNotSchedulable
		}

		booking.Date = &date
		booking.StartTime = start

		note := fmt.Sprintf("rescheduled to %s %s", req.Date, req.StartTime)
		if req.Note != "" {
			note = fmt.Sprintf("%s: %s", note, req.Note)
		}
		booking.AppendHistory(s.time.Now(), actor, note)

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: Reschedule - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("Reschedule: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	s.logger.Info("Reschedule: booking id=%d moved to %s %s", bookingID, req.Date, req.StartTime)
	return models.FromDomainBooking(result), nil
}

// Reassign заменяет назначенного агента
//
// Пригодность нового агента не перепроверяется — административный
// override. Выплата пересчитывается под нового агента
func (s *Service) Reassign(ctx context.Context, bookingID int64, req *models.ReassignRequest) (*models.BookingResponse, error) {
	s.logger.Info("Reassign: booking id=%d to agent=%d", bookingID, req.AgentID)

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var result *domain.Booking
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status.IsTerminal() {
			return ErrTerminalStatus
		}

		agent, err := s.agentRepo.GetByID(ctx, req.AgentID)
		if err != nil {
			if errors.Is(err, agentRepo.ErrAgentNotFound) {
				return ErrAgentNotFound
			}
			return fmt.Errorf("%w: Reassign - load agent: %v", ErrInternal, err)
		}

		client, catalog, err := s.loadPricingContext(ctx, booking.ClientID, booking.ServiceIDs)
		if err != nil {
			return err
		}

		booking.AgentID = &agent.ID
		booking.AgentPayout = payout.Calculate(booking.ServiceIDs, client, agent, catalog, s.cfg.RevenueShare)

		note := fmt.Sprintf("reassigned to agent %d (%s)", agent.ID, agent.Name)
		if req.Note != "" {
			note = fmt.Sprintf("%s: %s", note, req.Note)
		}
		booking.AppendHistory(s.time.Now(), actor, note)

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: Reassign - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("Reassign: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	s.logger.Info("Reassign: booking id=%d now assigned to agent=%d", bookingID, req.AgentID)
	return models.FromDomainBooking(result), nil
}

// EditServices изменяет состав услуг бронирования
//
// Стоимость пересчитывается по новому списку с учётом разовых цен
// оператора. Для prepaid-клиента в статусе Confirmado разница досписывается
// или возвращается на кошелёк в той же транзакции. Выплата агенту
// пересчитывается, если агент назначен
func (s *Service) EditServices(ctx context.Context, bookingID int64, req *models.EditServicesRequest) (*models.BookingResponse, error) {
	s.logger.Info("EditServices: booking id=%d, %d services", bookingID, len(req.ServiceIDs))

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(req.ServiceIDs) == 0 {
		return nil, fmt.Errorf("%w: empty service list", ErrInvalidInput)
	}

	var (
		result *domain.Booking
		impact *models.WalletImpact
	)
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		impact = nil

		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status.IsTerminal() {
			return ErrTerminalStatus
		}

		client, catalog, err := s.loadPricingContext(ctx, booking.ClientID, req.ServiceIDs)
		if err != nil {
			return err
		}

		oldTotal := booking.TotalPrice

		// Пересчёт стоимости: скидка по купону сохраняется как есть
		gross := pricing.TotalPrice(req.ServiceIDs, client, catalog, req.ManualPrices)
		newTotal := gross - booking.DiscountAmount
		if newTotal < 0 {
			newTotal = 0
		}

		booking.ServiceIDs = req.ServiceIDs
		booking.TotalPrice = newTotal
		booking.DurationMinutes = catalog.TotalDuration(req.ServiceIDs)

		// Пересчёт выплаты под новый состав
		if booking.AgentID != nil {
			agent, err := s.agentRepo.GetByID(ctx, *booking.AgentID)
			if err != nil {
				return fmt.Errorf("%w: EditServices - load agent: %v", ErrInternal, err)
			}
			booking.AgentPayout = payout.Calculate(req.ServiceIDs, client, agent, catalog, s.cfg.RevenueShare)
		}

		// Дельта по кошельку: положительная — досписание, отрицательная — возврат
		delta := newTotal - oldTotal
		if client.IsPrepaid() && booking.Status == domain.StatusConfirmed && delta != 0 {
			var balance float64
			if delta > 0 {
				balance, err = s.ledger.ApplyTransaction(ctx, client.ID, -delta, domain.TransactionDebit,
					fmt.Sprintf("service edit surcharge, booking #%d", booking.ID))
				if err == nil {
					impact = &models.WalletImpact{Amount: -delta, Type: string(domain.TransactionDebit), NewBalance: balance}
				}
			} else {
				balance, err = s.ledger.ApplyTransaction(ctx, client.ID, -delta, domain.TransactionCredit,
					fmt.Sprintf("service edit refund, booking #%d", booking.ID))
				if err == nil {
					impact = &models.WalletImpact{Amount: -delta, Type: string(domain.TransactionCredit), NewBalance: balance}
				}
			}
			if err != nil {
				return fmt.Errorf("%w: EditServices - wallet delta: %v", ErrInternal, err)
			}
		}

		booking.AppendHistory(s.time.Now(), actor,
			fmt.Sprintf("services edited, total %.2f -> %.2f", oldTotal, newTotal))

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: EditServices - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("EditServices: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	resp := models.FromDomainBooking(result)
	resp.Wallet = impact
	s.logger.Info("EditServices: booking id=%d total=%.2f", bookingID, result.TotalPrice)
	return resp, nil
}

// Cancel отменяет бронирование из любого нетерминального статуса
//
// Стоимость и выплата обнуляются, чтобы отчётность не учитывала отменённые
// заказы. Prepaid-клиенту, чьё бронирование дошло до Confirmado, в той же
// транзакции возвращается полная доотменная стоимость
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelRequest) error {
	s.logger.Info("Cancel: booking id=%d", bookingID)

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status.IsTerminal() {
			return ErrTerminalStatus
		}

		client, err := s.loadClient(ctx, booking.ClientID)
		if err != nil {
			return err
		}

		refundable := booking.TotalPrice
		wasPaid := booking.Status == domain.StatusConfirmed || booking.Status == domain.StatusPerformed

		booking.Status = domain.StatusCancelled
		booking.TotalPrice = 0
		booking.AgentPayout = 0

		if client.IsPrepaid() && wasPaid && refundable > 0 {
			if _, err := s.ledger.ApplyTransaction(ctx, client.ID, refundable, domain.TransactionRefund,
				fmt.Sprintf("cancellation refund, booking #%d", booking.ID)); err != nil {
				return fmt.Errorf("%w: Cancel - refund: %v", ErrInternal, err)
			}
		}

		note := "cancelled"
		if req.Reason != "" {
			note = fmt.Sprintf("cancelled: %s", req.Reason)
		}
		booking.AppendHistory(s.time.Now(), actor, note)

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: Cancel - update: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Cancel: booking id=%d failed: %v", bookingID, err)
		return err
	}

	s.logger.Info("Cancel: booking id=%d cancelled", bookingID)
	return nil
}

// ConfirmPending подтверждает бронирование, ожидающее оплаты
//
// Для prepaid-клиента в той же транзакции списывается полная стоимость.
// Списание ниже мягкого предела баланса проходит, но публикуется
// событие wallet_limit_exceeded
func (s *Service) ConfirmPending(ctx context.Context, bookingID int64, actorName string) (*models.BookingResponse, error) {
	s.logger.Info("ConfirmPending: booking id=%d", bookingID)

	actor, err := models.ToDomainActor(actorName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		result *domain.Booking
		impact *models.WalletImpact
		events []domain.OutboxEvent
	)
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		impact = nil
		events = events[:0]

		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.Status != domain.StatusPending {
			return ErrInvalidTransition
		}

		client, err := s.loadClient(ctx, booking.ClientID)
		if err != nil {
			return err
		}

		if client.IsPrepaid() && booking.TotalPrice > 0 {
			balance, err := s.ledger.ApplyTransaction(ctx, client.ID, -booking.TotalPrice, domain.TransactionDebit,
				fmt.Sprintf("booking confirmation, booking #%d", booking.ID))
			if err != nil {
				return fmt.Errorf("%w: ConfirmPending - debit: %v", ErrInternal, err)
			}
			impact = &models.WalletImpact{
				Amount:     -booking.TotalPrice,
				Type:       string(domain.TransactionDebit),
				NewBalance: balance,
			}

			if balance < s.cfg.NegativeBalanceFloor {
				events = append(events, domain.OutboxEvent{
					Type:      domain.EventWalletLimitExceeded,
					BookingID: booking.ID,
					ClientID:  client.ID,
					Note:      fmt.Sprintf("balance %.2f below floor %.2f", balance, s.cfg.NegativeBalanceFloor),
					CreatedAt: s.time.Now(),
				})
			}
		}

		booking.Status = domain.StatusConfirmed
		booking.AppendHistory(s.time.Now(), actor, "confirmed")

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: ConfirmPending - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("ConfirmPending: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	s.publishEvents(ctx, events)

	resp := models.FromDomainBooking(result)
	resp.Wallet = impact
	s.logger.Info("ConfirmPending: booking id=%d confirmed", bookingID)
	return resp, nil
}

// CompleteSession отмечает съёмку проведённой (Confirmado -> Realizado)
//
// Если дата бронирования уже позади дневного дедлайна 23:59 и агент
// назначен, против агента публикуется отчёт об опоздании со сдачей —
// fire-and-forget, сбой отчёта переход не блокирует
func (s *Service) CompleteSession(ctx context.Context, bookingID int64, req *models.CompleteSessionRequest) (*models.BookingResponse, error) {
	s.logger.Info("CompleteSession: booking id=%d", bookingID)

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.TipAmount != nil && *req.TipAmount < 0 {
		return nil, fmt.Errorf("%w: tip amount must be non-negative", ErrInvalidInput)
	}

	var (
		result *domain.Booking
		events []domain.OutboxEvent
	)
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		events = events[:0]

		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if !domain.CanTransition(booking.Status, domain.StatusPerformed) {
			return ErrInvalidTransition
		}

		booking.Status = domain.StatusPerformed
		if req.TipAmount != nil {
			booking.TipAmount = *req.TipAmount
		}

		note := "session performed"
		if req.Note != "" {
			note = fmt.Sprintf("session performed: %s", req.Note)
		}
		booking.AppendHistory(s.time.Now(), actor, note)

		if booking.AgentID != nil && booking.Date != nil {
			now := s.time.Now()
			y, m, d := booking.Date.Date()
			cutoff := time.Date(y, m, d, 23, 59, 0, 0, now.Location())
			if now.After(cutoff) {
				events = append(events, domain.OutboxEvent{
					Type:      domain.EventLateDeliveryReport,
					BookingID: booking.ID,
					ClientID:  booking.ClientID,
					AgentID:   booking.AgentID,
					Note:      fmt.Sprintf("session closed after %s 23:59 cutoff", booking.Date.Format(domain.DateFormat)),
					CreatedAt: now,
				})
			}
		}

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: CompleteSession - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("CompleteSession: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	s.publishEvents(ctx, events)

	s.logger.Info("CompleteSession: booking id=%d performed", bookingID)
	return models.FromDomainBooking(result), nil
}

// Deliver прикрепляет сданный материал и завершает бронирование
// (Realizado -> Concluído, терминальный статус)
func (s *Service) Deliver(ctx context.Context, bookingID int64, req *models.DeliverRequest) (*models.BookingResponse, error) {
	s.logger.Info("Deliver: booking id=%d, %d material refs", bookingID, len(req.MaterialRefs))

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.TipAmount != nil && *req.TipAmount < 0 {
		return nil, fmt.Errorf("%w: tip amount must be non-negative", ErrInvalidInput)
	}

	var result *domain.Booking
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if !domain.CanTransition(booking.Status, domain.StatusCompleted) {
			return ErrInvalidTransition
		}

		booking.Status = domain.StatusCompleted
		if req.TipAmount != nil {
			booking.TipAmount = *req.TipAmount
		}
		booking.MaterialRefs = append(booking.MaterialRefs, req.MaterialRefs...)
		booking.AppendHistory(s.time.Now(), actor,
			fmt.Sprintf("material delivered (%d refs), booking completed", len(req.MaterialRefs)))

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: Deliver - update: %v", ErrInternal, err)
		}
		result = booking
		return nil
	})
	if err != nil {
		s.logger.Warn("Deliver: booking id=%d failed: %v", bookingID, err)
		return nil, err
	}

	s.logger.Info("Deliver: booking id=%d completed", bookingID)
	return models.FromDomainBooking(result), nil
}

// UpdateStatus универсальная смена статуса: маршрутизирует переход
// на операцию с соответствующими побочными эффектами
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	status, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	switch status {
	case domain.StatusConfirmed:
		return s.ConfirmPending(ctx, bookingID, req.Actor)
	case domain.StatusPerformed:
		return s.CompleteSession(ctx, bookingID, &models.CompleteSessionRequest{Actor: req.Actor, Note: req.Note})
	case domain.StatusCancelled:
		if err := s.Cancel(ctx, bookingID, &models.CancelRequest{Actor: req.Actor, Reason: req.Note}); err != nil {
			return nil, err
		}
		cancelled, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("%w: UpdateStatus - reload cancelled booking: %v", ErrInternal, err)
		}
		return models.FromDomainBooking(cancelled), nil
	case domain.StatusCompleted:
		return s.Deliver(ctx, bookingID, &models.DeliverRequest{Actor: req.Actor})
	default:
		return nil, ErrInvalidTransition
	}
}

// MarkPayoutPaid отмечает выплату агенту как произведённую
//
// Единственное финансовое поле, изменяемое после терминального статуса
func (s *Service) MarkPayoutPaid(ctx context.Context, bookingID int64) error {
	s.logger.Info("MarkPayoutPaid: booking id=%d", bookingID)

	return s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.AgentID == nil {
			return fmt.Errorf("%w: booking has no agent", ErrInvalidInput)
		}

		booking.PaidToAgent = true
		booking.AppendHistory(s.time.Now(), domain.ActorSystem, "agent payout marked as paid")

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("%w: MarkPayoutPaid - update: %v", ErrInternal, err)
		}
		return nil
	})
}

// Вспомогательные методы

// lockBooking читает бронирование под блокировкой строки
func (s *Service) lockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: load booking: %v", ErrInternal, err)
	}
	return booking, nil
}

// loadClient читает клиента с маппингом ошибок хранилища
func (s *Service) loadClient(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("%w: load client: %v", ErrInternal, err)
	}
	return client, nil
}

// loadPricingContext читает клиента и каталог для пересчёта цен
func (s *Service) loadPricingContext(ctx context.Context, clientID int64, serviceIDs []string) (*domain.Client, domain.Catalog, error) {
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := s.catalog.GetServices(ctx, serviceIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: catalog lookup: %v", ErrInternal, err)
	}

	return client, catalog, nil
}

// publishEvents публикует события после коммита, fire-and-forget
func (s *Service) publishEvents(ctx context.Context, events []domain.OutboxEvent) {
	for _, event := range events {
		outcome := "published"
		if err := s.events.Publish(ctx, event); err != nil {
			outcome = "failed"
			s.logger.Error("publishEvents: failed to publish %s for booking id=%d: %v",
				event.Type, event.BookingID, err)
		}
		if s.metrics != nil {
			s.metrics.IncOutboxEvent(string(event.Type), outcome)
		}
	}
}

// parseStartTime валидирует время начала в формате HH:MM
func parseStartTime(raw string) (types.TimeString, error) {
	start, err := types.NewTimeStringFromString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid start time %q", ErrInvalidInput, raw)
	}
	return start, nil
}
