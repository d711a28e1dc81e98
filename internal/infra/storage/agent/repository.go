package agent

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

// agentColumns полный список колонок таблицы agents в порядке сканирования
var agentColumns = []string{
	"id",
	"name",
	"active",
	"base_lat",
	"base_lng",
	"radius_km",
	"service_ids",
	"rates",
	"weekly_template",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с агентами
//
// Агенты — административные данные: движок назначения их только читает.
// Квалификации, ставки и недельный шаблон хранятся в JSONB-колонках
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория агентов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает агента по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(agentColumns...).
		From("agents").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	agent, err := scanAgent(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}

	return agent, nil
}

// ListActive получает всех активных агентов
// Пул кандидатов для назначения: деактивированные агенты не участвуют
func (r *Repository) ListActive(ctx context.Context) ([]*domain.Agent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(agentColumns...).
		From("agents").
		Where(squirrel.Eq{"active": true}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	agents := make([]*domain.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return agents, nil
}

// ListBlockedIntervals получает ручные блокировки расписания агента,
// начинающиеся в указанный календарный день
func (r *Repository) ListBlockedIntervals(ctx context.Context, agentID int64, date time.Time) ([]*domain.BlockedTimeInterval, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query, args, err := psqlbuilder.Select(
		"id",
		"agent_id",
		"starts_at",
		"ends_at",
		"reason",
	).
		From("blocked_time_intervals").
		Where(squirrel.Eq{"agent_id": agentID}).
		Where(squirrel.GtOrEq{"starts_at": dayStart}).
		Where(squirrel.Lt{"starts_at": dayEnd}).
		OrderBy("starts_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedIntervals - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedIntervals - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	intervals := make([]*domain.BlockedTimeInterval, 0)
	for rows.Next() {
		var interval domain.BlockedTimeInterval
		var reason sql.NullString

		err := rows.Scan(
			&interval.ID,
			&interval.AgentID,
			&interval.StartsAt,
			&interval.EndsAt,
			&reason,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListBlockedIntervals - scan row: %v", ErrScanRow, err)
		}

		interval.Reason = reason.String
		intervals = append(intervals, &interval)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlockedIntervals - rows error: %v", ErrScanRow, err)
	}

	return intervals, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAgent сканирует одну строку в domain.Agent
func scanAgent(row rowScanner) (*domain.Agent, error) {
	var (
		agent          domain.Agent
		baseLat        sql.NullFloat64
		baseLng        sql.NullFloat64
		serviceIDs     []byte
		rates          []byte
		weeklyTemplate []byte
		createdAt      sql.NullTime
		updatedAt      sql.NullTime
	)

	err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Active,
		&baseLat,
		&baseLng,
		&agent.RadiusKm,
		&serviceIDs,
		&rates,
		&weeklyTemplate,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanAgent - scan row: %v", ErrScanRow, err)
	}

	// База не задана — агент не участвует в назначении, но остаётся читаемым
	if baseLat.Valid && baseLng.Valid {
		agent.Base = &domain.Coordinates{Lat: baseLat.Float64, Lng: baseLng.Float64}
	}

	if err := json.Unmarshal(serviceIDs, &agent.ServiceIDs); err != nil {
		return nil, fmt.Errorf("%w: service_ids: %v", ErrDecodeJSON, err)
	}
	if err := json.Unmarshal(rates, &agent.Rates); err != nil {
		return nil, fmt.Errorf("%w: rates: %v", ErrDecodeJSON, err)
	}
	if err := json.Unmarshal(weeklyTemplate, &agent.WeeklyTemplate); err != nil {
		return nil, fmt.Errorf("%w: weekly_template: %v", ErrDecodeJSON, err)
	}

	agent.CreatedAt = createdAt.Time
	agent.UpdatedAt = updatedAt.Time

	return &agent, nil
}
