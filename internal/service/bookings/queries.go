package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
)

// GetByID получает бронирование по ID
// Доступно только участникам бронирования: клиенту-владельцу или
// назначенному агенту
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	// Проверяем права доступа
	if err := s.checkUserAccess(booking, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// GetClientBookings получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) GetClientBookings(ctx context.Context, req *models.GetClientBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetClientBookings: client=%d, status=%v, user=%d", req.ClientID, req.Status, req.UserID)

	// Историю клиента видит только сам клиент
	if req.UserID != req.ClientID {
		s.logger.Warn("GetClientBookings: access denied for user=%d to client=%d", req.UserID, req.ClientID)
		return nil, ErrAccessDenied
	}

	filter := domain.ClientBookingsFilter{ClientID: req.ClientID}
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetClientBookings: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.GetByClientWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetClientBookings: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: GetClientBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetClientBookings: fetched %d bookings for client=%d", len(bookings), req.ClientID)
	return models.FromDomainBookingList(bookings), nil
}

// GetAgentBookings получает бронирования агента с фильтрацией
// по дате, статусу и признаку активности
func (s *Service) GetAgentBookings(ctx context.Context, req *models.GetAgentBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetAgentBookings: agent=%d, date=%v, status=%v, user=%d", req.AgentID, req.Date, req.Status, req.UserID)

	// Расписание агента видит только сам агент
	if req.UserID != req.AgentID {
		s.logger.Warn("GetAgentBookings: access denied for user=%d to agent=%d", req.UserID, req.AgentID)
		return nil, ErrAccessDenied
	}

	filter := domain.AgentBookingsFilter{
		AgentID:    req.AgentID,
		ActiveOnly: req.ActiveOnly,
	}

	if req.Date != nil {
		date, err := time.Parse(domain.DateFormat, *req.Date)
		if err != nil {
			s.logger.Warn("GetAgentBookings: invalid date=%s for agent=%d", *req.Date, req.AgentID)
			return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, *req.Date)
		}
		filter.Date = &date
	}

	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.GetByAgentWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetAgentBookings: repository error for agent=%d: %v", req.AgentID, err)
		return nil, fmt.Errorf("%w: GetAgentBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetAgentBookings: fetched %d bookings for agent=%d", len(bookings), req.AgentID)
	return models.FromDomainBookingList(bookings), nil
}

// checkUserAccess проверяет, что пользователь — участник бронирования:
// клиент-владелец или назначенный агент
func (s *Service) checkUserAccess(booking *domain.Booking, userID int64) error {
	if booking.ClientID == userID {
		return nil
	}
	if booking.AgentID != nil && *booking.AgentID == userID {
		return nil
	}
	return ErrAccessDenied
}
