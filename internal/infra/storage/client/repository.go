package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DispatchService/pkg/psqlbuilder"
)

// clientColumns полный список колонок таблицы clients в порядке сканирования
var clientColumns = []string{
	"id",
	"name",
	"payment_mode",
	"balance",
	"price_overrides",
	"address",
	"lat",
	"lng",
	"blocked_agent_ids",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с клиентами и журналом кошелька
//
// Баланс клиента меняется только вместе со вставкой строки журнала
// wallet_transactions в одной транзакции под блокировкой FOR UPDATE
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает клиента по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(clientColumns...).
		From("clients").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	client, err := scanClient(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}

	return client, nil
}

// GetBalanceForUpdate получает баланс клиента с блокировкой строки (FOR UPDATE)
// Вызывается только внутри транзакции перед изменением баланса
func (r *Repository) GetBalanceForUpdate(ctx context.Context, clientID int64) (float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("balance").
		From("clients").
		Where(squirrel.Eq{"id": clientID}).
		Suffix("FOR UPDATE").
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: GetBalanceForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	var balance float64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrClientNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: GetBalanceForUpdate - scan balance: %v", ErrScanRow, err)
	}

	return balance, nil
}

// InsertTransaction вставляет строку журнала кошелька
// Журнал append-only: строки никогда не изменяются и не удаляются
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("wallet_transactions").
		Columns(
			"client_id",
			"amount",
			"type",
			"description",
			"balance_after",
		).
		Values(
			tx.ClientID,
			tx.Amount,
			tx.Type,
			tx.Description,
			tx.BalanceAfter,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: InsertTransaction - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&tx.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: InsertTransaction - execute insert: %v", ErrExecQuery, err)
	}

	tx.CreatedAt = createdAt.Time
	return tx, nil
}

// UpdateBalance сохраняет новый баланс клиента
func (r *Repository) UpdateBalance(ctx context.Context, clientID int64, balance float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("clients").
		Set("balance", balance).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": clientID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateBalance - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrClientNotFound
	}

	return nil
}

// ListTransactions получает последние операции журнала кошелька клиента
func (r *Repository) ListTransactions(ctx context.Context, clientID int64, limit int) ([]*domain.WalletTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"client_id",
		"amount",
		"type",
		"description",
		"balance_after",
		"created_at",
	).
		From("wallet_transactions").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("created_at DESC, id DESC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	transactions := make([]*domain.WalletTransaction, 0)
	for rows.Next() {
		var tx domain.WalletTransaction
		var createdAt sql.NullTime

		err := rows.Scan(
			&tx.ID,
			&tx.ClientID,
			&tx.Amount,
			&tx.Type,
			&tx.Description,
			&tx.BalanceAfter,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListTransactions - scan row: %v", ErrScanRow, err)
		}

		tx.CreatedAt = createdAt.Time
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - rows error: %v", ErrScanRow, err)
	}

	return transactions, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanClient сканирует одну строку в domain.Client
func scanClient(row rowScanner) (*domain.Client, error) {
	var (
		client          domain.Client
		lat             sql.NullFloat64
		lng             sql.NullFloat64
		priceOverrides  []byte
		blockedAgentIDs []byte
		createdAt       sql.NullTime
		updatedAt       sql.NullTime
	)

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.PaymentMode,
		&client.Balance,
		&priceOverrides,
		&client.Address,
		&lat,
		&lng,
		&blockedAgentIDs,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanClient - scan row: %v", ErrScanRow, err)
	}

	// Координаты появляются после геокодирования адреса
	if lat.Valid && lng.Valid {
		client.Coords = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}

	if err := json.Unmarshal(priceOverrides, &client.PriceOverrides); err != nil {
		return nil, fmt.Errorf("%w: price_overrides: %v", ErrDecodeJSON, err)
	}
	if err := json.Unmarshal(blockedAgentIDs, &client.BlockedAgentIDs); err != nil {
		return nil, fmt.Errorf("%w: blocked_agent_ids: %v", ErrDecodeJSON, err)
	}

	client.CreatedAt = createdAt.Time
	client.UpdatedAt = updatedAt.Time

	return &client, nil
}
