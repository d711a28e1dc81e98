package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	"github.com/m04kA/SMC-DispatchService/internal/service/eligibility"
	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// Config параметры выдачи слотов
type Config struct {
	MinNoticeMinutes int // минимальный зазор до начала слота при запросе на сегодня
}

// UseCase use case для получения доступных слотов
//
// Для запрошенной даты и набора услуг возвращает свободные времена начала
// каждого пригодного агента и объединённый список по всем агентам
type UseCase struct {
	bookingRepo  BookingRepository
	agentRepo    AgentRepository
	clientRepo   ClientRepository
	catalog      CatalogClient
	timeProvider TimeProvider
	cfg          Config
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	agentRepo AgentRepository,
	clientRepo ClientRepository,
	catalog CatalogClient,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		agentRepo:    agentRepo,
		clientRepo:   clientRepo,
		catalog:      catalog,
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

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: client=%d, services=%d, date=%s",
		req.ClientID, len(req.ServiceIDs), req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	if isDateInPast(req.Date, now) {
		uc.logger.Warn("GetAvailableSlots: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 3. Получаем клиента
	client, err := uc.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			uc.logger.Warn("GetAvailableSlots: client id=%d not found", req.ClientID)
			return nil, ErrClientNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get client id=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: failed to get client: %v", ErrInternal, err)
	}

	// 4. Длительность заказа по каталогу
	catalog, err := uc.catalog.GetServices(ctx, req.ServiceIDs)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: catalog lookup failed: %v", err)
		return nil, fmt.Errorf("%w: catalog lookup failed: %v", ErrInternal, err)
	}
	duration := catalog.TotalDuration(req.ServiceIDs)

	// 5. Пригодные агенты для этой точки и набора услуг
	agents, err := uc.agentRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list agents: %v", err)
		return nil, fmt.Errorf("%w: failed to list agents: %v", ErrInternal, err)
	}

	jobSite := domain.Coordinates{Lat: req.Lat, Lng: req.Lng}
	eligible := eligibility.EligibleAgents(agents, req.ServiceIDs, jobSite, client)
	origin := eligibility.SearchOrigin(req.ServiceIDs, jobSite, client)

	// 6. Для запроса на сегодня слоты раньше текущего времени не предлагаются
	var minAllowed *types.TimeString
	if isSameDay(req.Date, now) {
		current := types.NewTimeString(now)
		allowed, err := current.AddMinutes(uc.cfg.MinNoticeMinutes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compute notice boundary: %v", ErrInternal, err)
		}
		minAllowed = &allowed
	}

	// 7. Свободные слоты каждого агента
	perAgent := make([]AgentSlots, 0, len(eligible))
	for _, agent := range eligible {
		bookings, err := uc.bookingRepo.GetByAgentWithFilter(ctx, domain.AgentBookingsFilter{
			AgentID:    agent.ID,
			Date:       &req.Date,
			ActiveOnly: true,
		})
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to load bookings for agent=%d: %v", agent.ID, err)
			return nil, fmt.Errorf("%w: failed to load bookings for agent=%d: %v", ErrInternal, agent.ID, err)
		}

		blocked, err := uc.agentRepo.ListBlockedIntervals(ctx, agent.ID, req.Date)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to load blocked intervals for agent=%d: %v", agent.ID, err)
			return nil, fmt.Errorf("%w: failed to load blocked intervals for agent=%d: %v", ErrInternal, agent.ID, err)
		}

		free := freeSlotsForAgent(agent, bookings, blocked, req.Date, duration, minAllowed)
		if len(free) == 0 {
			continue
		}

		perAgent = append(perAgent, AgentSlots{
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			DistanceKm: domain.DistanceKm(*agent.Base, origin),
			Slots:      free,
		})
	}

	// 8. Объединённый список времён по всем агентам
	merged := mergeSlots(perAgent)

	uc.logger.Info("GetAvailableSlots: %d agents with slots, %d distinct times for date=%s",
		len(perAgent), len(merged), req.Date.Format(domain.DateFormat))

	return &Response{
		Date:            req.Date,
		DurationMinutes: duration,
		Agents:          perAgent,
		Slots:           merged,
	}, nil
}
