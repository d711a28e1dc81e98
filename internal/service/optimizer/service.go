package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-DispatchService/internal/service/eligibility"
)

// Service поиск парных обменов маршрутами между агентами
//
// Предложения — рекомендательные снимки: они не сохраняются и к моменту
// действия оператора могут устареть. Перед применением обмен обязан
// пройти повторную проверку (пригодность + свободный слот) через
// обычный Reassign
type Service struct {
	bookingRepo BookingRepository
	agentRepo   AgentRepository
	clientRepo  ClientRepository
	txManager   TransactionManager
	minSavingKm float64
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр оптимизатора маршрутов
func NewService(
	bookingRepo BookingRepository,
	agentRepo AgentRepository,
	clientRepo ClientRepository,
	txManager TransactionManager,
	minSavingKm float64,
	logger Logger,
) *Service {
	if minSavingKm <= 0 {
		minSavingKm = domain.DefaultMinSwapSavingKm
	}
	return &Service{
		bookingRepo: bookingRepo,
		agentRepo:   agentRepo,
		clientRepo:  clientRepo,
		txManager:   txManager,
		minSavingKm: minSavingKm,
		logger:      logger,
	}
}

// WithMetrics подключает бизнес-метрики (опционально)
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// FindRouteOptimizations ищет выгодные обмены агентами на дату
//
// Рассматриваются пары подтверждённых бронирований с одинаковым временем
// начала и разными агентами. Обмен предлагается, когда оба агента
// способны выполнить услуги друг друга и суммарный пробег сокращается
// больше чем на минимальный порог:
//
//	d(A.base, A.job) + d(B.base, B.job) - d(A.base, B.job) - d(B.base, A.job) > minSavingKm
func (s *Service) FindRouteOptimizations(ctx context.Context, date time.Time) ([]domain.SwapSuggestion, error) {
	s.logger.Info("FindRouteOptimizations: date=%s", date.Format(domain.DateFormat))

	var suggestions []domain.SwapSuggestion
	err := s.txManager.DoReadOnly(ctx, func(ctx context.Context) error {
		suggestions = suggestions[:0]

		bookings, err := s.bookingRepo.GetByDateAndStatus(ctx, date, domain.StatusConfirmed)
		if err != nil {
			return fmt.Errorf("%w: FindRouteOptimizations - load bookings: %v", ErrInternal, err)
		}

		agents := map[int64]*domain.Agent{}
		loadAgent := func(id int64) (*domain.Agent, error) {
			if agent, ok := agents[id]; ok {
				return agent, nil
			}
			agent, err := s.agentRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			agents[id] = agent
			return agent, nil
		}

		// Группируем по времени начала: обмен возможен только между
		// бронированиями одного слота
		bySlot := map[string][]*domain.Booking{}
		for _, b := range bookings {
			if b.AgentID == nil || !b.HasSchedule() {
				continue
			}
			key := b.StartTime.String()
			bySlot[key] = append(bySlot[key], b)
		}

		// Слоты обходим в отсортированном порядке: внутри слота пары уже
		// упорядочены выборкой (start_time, id), так что результат
		// детерминирован между запусками
		slotKeys := make([]string, 0, len(bySlot))
		for key := range bySlot {
			slotKeys = append(slotKeys, key)
		}
		sort.Strings(slotKeys)

		for _, key := range slotKeys {
			slot := bySlot[key]
			for i := 0; i < len(slot); i++ {
				for j := i + 1; j < len(slot); j++ {
					a, b := slot[i], slot[j]
					if *a.AgentID == *b.AgentID {
						continue
					}

					agentA, err := loadAgent(*a.AgentID)
					if err != nil {
						s.logger.Warn("FindRouteOptimizations: skipping pair (%d,%d): agent %d: %v", a.ID, b.ID, *a.AgentID, err)
						continue
					}
					agentB, err := loadAgent(*b.AgentID)
					if err != nil {
						s.logger.Warn("FindRouteOptimizations: skipping pair (%d,%d): agent %d: %v", a.ID, b.ID, *b.AgentID, err)
						continue
					}

					if agentA.Base == nil || agentB.Base == nil {
						continue
					}

					// Перекрёстная проверка компетенций
					if !agentA.SupportsAll(domain.EssentialServiceIDs(b.ServiceIDs)) ||
						!agentB.SupportsAll(domain.EssentialServiceIDs(a.ServiceIDs)) {
						continue
					}

					saving := domain.DistanceKm(*agentA.Base, a.Coords) +
						domain.DistanceKm(*agentB.Base, b.Coords) -
						domain.DistanceKm(*agentA.Base, b.Coords) -
						domain.DistanceKm(*agentB.Base, a.Coords)

					if saving > s.minSavingKm {
						suggestions = append(suggestions, domain.SwapSuggestion{
							Date:            date,
							StartTime:       a.StartTime,
							BookingAID:      a.ID,
							BookingBID:      b.ID,
							AgentAID:        agentA.ID,
							AgentBID:        agentB.ID,
							DistanceSavedKm: saving,
						})
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SetSwapSuggestions(float64(len(suggestions)))
	}

	s.logger.Info("FindRouteOptimizations: %d suggestions for %s", len(suggestions), date.Format(domain.DateFormat))
	return suggestions, nil
}

// GetEligibleAgentsForSwap возвращает агентов, статически пригодных
// принять бронирование при ручном обмене
//
// Проверяется только статическая пригодность — свободность слота
// оператор проверяет отдельно при самом переназначении
func (s *Service) GetEligibleAgentsForSwap(ctx context.Context, bookingID int64) ([]*domain.Agent, error) {
	s.logger.Info("GetEligibleAgentsForSwap: booking id=%d", bookingID)

	var eligible []*domain.Agent
	err := s.txManager.DoReadOnly(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: GetEligibleAgentsForSwap - load booking: %v", ErrInternal, err)
		}

		// Клиент нужен только ради блок-листа: его отсутствие не критично
		client, err := s.clientRepo.GetByID(ctx, booking.ClientID)
		if err != nil {
			s.logger.Warn("GetEligibleAgentsForSwap: client=%d unavailable, skipping blocklist: %v", booking.ClientID, err)
			client = nil
		}

		agents, err := s.agentRepo.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("%w: GetEligibleAgentsForSwap - list agents: %v", ErrInternal, err)
		}

		eligible = eligibility.EligibleAgents(agents, booking.ServiceIDs, booking.Coords, client)

		// Текущий агент в списке кандидатов на замену не нужен
		if booking.AgentID != nil {
			filtered := eligible[:0]
			for _, a := range eligible {
				if a.ID != *booking.AgentID {
					filtered = append(filtered, a)
				}
			}
			eligible = filtered
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetEligibleAgentsForSwap: %d candidates for booking id=%d", len(eligible), bookingID)
	return eligible, nil
}
