package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
)

// Service журнал кошелька клиента
//
// Журнал append-only: баланс меняется только добавлением строки
// с зафиксированным balance_after. Сервис не открывает транзакций сам —
// вызывающий слой обязан выполнять ApplyTransaction внутри той же
// транзакции, что и переход статуса, который её породил
type Service struct {
	repo    LedgerRepository
	time    TimeProvider
	metrics Metrics
	logger  Logger
}

// NewService создает новый экземпляр сервиса кошелька
func NewService(repo LedgerRepository, timeProvider TimeProvider, logger Logger) *Service {
	return &Service{
		repo:   repo,
		time:   timeProvider,
		logger: logger,
	}
}

// WithMetrics подключает бизнес-метрики (опционально)
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// ApplyTransaction применяет операцию к кошельку клиента и возвращает
// новый баланс
//
// Сумма знаковая: списания отрицательные, пополнения и возвраты
// положительные. Отрицательный баланс допустим — лимит контролирует
// вызывающий слой (мягкое предупреждение, без блокировки)
func (s *Service) ApplyTransaction(
	ctx context.Context,
	clientID int64,
	amount float64,
	txType domain.TransactionType,
	description string,
) (float64, error) {
	s.logger.Info("ApplyTransaction: client=%d amount=%.2f type=%s", clientID, amount, txType)

	if err := validateAmount(amount, txType); err != nil {
		s.logger.Warn("ApplyTransaction: rejected for client=%d: %v", clientID, err)
		return 0, err
	}

	// 1. Баланс под блокировкой строки
	balance, err := s.repo.GetBalanceForUpdate(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			s.logger.Warn("ApplyTransaction: client=%d not found", clientID)
			return 0, ErrClientNotFound
		}
		s.logger.Error("ApplyTransaction: repository error for client=%d: %v", clientID, err)
		return 0, fmt.Errorf("%w: ApplyTransaction - repository error: %v", ErrInternal, err)
	}

	newBalance := balance + amount

	// 2. Строка журнала с балансом после операции
	tx := &domain.WalletTransaction{
		ClientID:     clientID,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		BalanceAfter: newBalance,
		CreatedAt:    s.time.Now(),
	}
	if _, err := s.repo.InsertTransaction(ctx, tx); err != nil {
		s.logger.Error("ApplyTransaction: failed to insert ledger row for client=%d: %v", clientID, err)
		return 0, fmt.Errorf("%w: ApplyTransaction - insert ledger row: %v", ErrInternal, err)
	}

	// 3. Обновляем баланс клиента
	if err := s.repo.UpdateBalance(ctx, clientID, newBalance); err != nil {
		s.logger.Error("ApplyTransaction: failed to update balance for client=%d: %v", clientID, err)
		return 0, fmt.Errorf("%w: ApplyTransaction - update balance: %v", ErrInternal, err)
	}

	if s.metrics != nil {
		s.metrics.IncWalletTransaction(string(txType))
	}

	s.logger.Info("ApplyTransaction: client=%d balance %.2f -> %.2f", clientID, balance, newBalance)
	return newBalance, nil
}

// History возвращает последние операции по кошельку клиента
func (s *Service) History(ctx context.Context, clientID int64, limit int) ([]*domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	transactions, err := s.repo.ListTransactions(ctx, clientID, limit)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("History: repository error for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: History - repository error: %v", ErrInternal, err)
	}

	return transactions, nil
}

// validateAmount проверяет соответствие знака суммы типу операции
func validateAmount(amount float64, txType domain.TransactionType) error {
	switch txType {
	case domain.TransactionDebit:
		if amount >= 0 {
			return fmt.Errorf("%w: debit amount must be negative", ErrInvalidAmount)
		}
	case domain.TransactionCredit, domain.TransactionRefund:
		if amount <= 0 {
			return fmt.Errorf("%w: credit amount must be positive", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransactionType, txType)
	}
	return nil
}
