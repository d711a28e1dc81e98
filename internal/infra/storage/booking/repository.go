package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DispatchService/pkg/psqlbuilder"
)

// bookingColumns полный список колонок таблицы bookings в порядке сканирования
var bookingColumns = []string{
	"id",
	"client_id",
	"agent_id",
	"service_ids",
	"booking_date",
	"start_time",
	"duration_minutes",
	"address",
	"lat",
	"lng",
	"status",
	"total_price",
	"discount_amount",
	"coupon_code",
	"agent_payout",
	"tip_amount",
	"paid_to_agent",
	"flash",
	"accompanied_viewing",
	"key_pickup",
	"material_refs",
	"history",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
//
// Списки услуг, ссылки на материалы и история хранятся в JSONB-колонках:
// они читаются и пишутся только целиком, вместе со строкой бронирования
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	serviceIDs, materialRefs, history, err := encodeJSONColumns(booking)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"client_id",
			"agent_id",
			"service_ids",
			"booking_date",
			"start_time",
			"duration_minutes",
			"address",
			"lat",
			"lng",
			"status",
			"total_price",
			"discount_amount",
			"coupon_code",
			"agent_payout",
			"tip_amount",
			"paid_to_agent",
			"flash",
			"accompanied_viewing",
			"key_pickup",
			"material_refs",
			"history",
		).
		Values(
			booking.ClientID,
			booking.AgentID,
			serviceIDs,
			booking.Date,
			booking.StartTime,
			booking.DurationMinutes,
			booking.Address,
			booking.Coords.Lat,
			booking.Coords.Lng,
			booking.Status,
			booking.TotalPrice,
			booking.DiscountAmount,
			booking.CouponCode,
			booking.AgentPayout,
			booking.TipAmount,
			booking.PaidToAgent,
			booking.Flash,
			booking.AccompaniedViewing,
			booking.KeyPickup,
			materialRefs,
			history,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование по ID с блокировкой строки (FOR UPDATE)
// Используется внутри сериализуемых транзакций при изменении статуса
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getByID(ctx, id, true)
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// GetByAgentWithFilter получает бронирования агента с гибкой фильтрацией
//
// Поддерживает фильтрацию по дате (одна дата), статусу, исключение
// отменённых (ActiveOnly) и исключение одного бронирования (ExcludeID —
// проверка конфликтов не должна конфликтовать с самим бронированием)
//
// Для конкретной даты внутри транзакции строки блокируются FOR UPDATE:
// назначение агента резервирует его расписание на время транзакции
func (r *Repository) GetByAgentWithFilter(ctx context.Context, filter domain.AgentBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"agent_id": filter.AgentID})

	if filter.Date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"booking_date": *filter.Date})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": string(domain.StatusCancelled)})
	}

	if filter.ExcludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *filter.ExcludeID})
	}

	if filter.Date != nil {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_time DESC")
	}

	if dbmetrics.IsInTransaction(ctx) && filter.Date != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByAgentWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByAgentWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByClientWithFilter получает историю бронирований клиента,
// опционально отфильтрованную по статусу
func (r *Repository) GetByClientWithFilter(ctx context.Context, filter domain.ClientBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"client_id": filter.ClientID}).
		OrderBy("created_at DESC")

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByDateAndStatus получает все бронирования на дату в указанном статусе
// Используется оптимизатором маршрутов для обхода подтверждённых заказов дня
func (r *Repository) GetByDateAndStatus(ctx context.Context, date time.Time, status domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"status": status}).
		OrderBy("start_time ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByDateAndStatus - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDateAndStatus - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Update сохраняет изменённое бронирование целиком
// История append-only на уровне домена, поэтому перезапись колонки history
// всем списком безопасна: вызывающий код только дописывает записи
func (r *Repository) Update(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	serviceIDs, materialRefs, history, err := encodeJSONColumns(booking)
	if err != nil {
		return err
	}

	query, args, err := psqlbuilder.Update("bookings").
		Set("agent_id", booking.AgentID).
		Set("service_ids", serviceIDs).
		Set("booking_date", booking.Date).
		Set("start_time", booking.StartTime).
		Set("duration_minutes", booking.DurationMinutes).
		Set("address", booking.Address).
		Set("lat", booking.Coords.Lat).
		Set("lng", booking.Coords.Lng).
		Set("status", booking.Status).
		Set("total_price", booking.TotalPrice).
		Set("discount_amount", booking.DiscountAmount).
		Set("coupon_code", booking.CouponCode).
		Set("agent_payout", booking.AgentPayout).
		Set("tip_amount", booking.TipAmount).
		Set("paid_to_agent", booking.PaidToAgent).
		Set("flash", booking.Flash).
		Set("accompanied_viewing", booking.AccompaniedViewing).
		Set("key_pickup", booking.KeyPickup).
		Set("material_refs", materialRefs).
		Set("history", history).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": booking.ID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// encodeJSONColumns сериализует JSONB-колонки бронирования
func encodeJSONColumns(booking *domain.Booking) (serviceIDs, materialRefs, history []byte, err error) {
	if booking.ServiceIDs == nil {
		booking.ServiceIDs = []string{}
	}
	serviceIDs, err = json.Marshal(booking.ServiceIDs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: service_ids: %v", ErrEncodeJSON, err)
	}

	if booking.MaterialRefs == nil {
		booking.MaterialRefs = []string{}
	}
	materialRefs, err = json.Marshal(booking.MaterialRefs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: material_refs: %v", ErrEncodeJSON, err)
	}

	if booking.History == nil {
		booking.History = []domain.HistoryEntry{}
	}
	history, err = json.Marshal(booking.History)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: history: %v", ErrEncodeJSON, err)
	}

	return serviceIDs, materialRefs, history, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в domain.Booking
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking      domain.Booking
		agentID      sql.NullInt64
		bookingDate  sql.NullTime
		couponCode   sql.NullString
		serviceIDs   []byte
		materialRefs []byte
		history      []byte
		createdAt    sql.NullTime
		updatedAt    sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&agentID,
		&serviceIDs,
		&bookingDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.Address,
		&booking.Coords.Lat,
		&booking.Coords.Lng,
		&booking.Status,
		&booking.TotalPrice,
		&booking.DiscountAmount,
		&couponCode,
		&booking.AgentPayout,
		&booking.TipAmount,
		&booking.PaidToAgent,
		&booking.Flash,
		&booking.AccompaniedViewing,
		&booking.KeyPickup,
		&materialRefs,
		&history,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanBooking - scan row: %v", ErrScanRow, err)
	}

	if agentID.Valid {
		booking.AgentID = &agentID.Int64
	}
	if bookingDate.Valid {
		date := bookingDate.Time
		booking.Date = &date
	}
	if couponCode.Valid {
		booking.CouponCode = &couponCode.String
	}

	if err := json.Unmarshal(serviceIDs, &booking.ServiceIDs); err != nil {
		return nil, fmt.Errorf("%w: service_ids: %v", ErrDecodeJSON, err)
	}
	if err := json.Unmarshal(materialRefs, &booking.MaterialRefs); err != nil {
		return nil, fmt.Errorf("%w: material_refs: %v", ErrDecodeJSON, err)
	}
	if err := json.Unmarshal(history, &booking.History); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrDecodeJSON, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
