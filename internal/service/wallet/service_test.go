package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
)

type fakeLedgerRepo struct {
	balances     map[int64]float64
	transactions []*domain.WalletTransaction
	nextID       int64
}

func newFakeLedgerRepo(balances map[int64]float64) *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: balances, nextID: 1}
}

func (f *fakeLedgerRepo) GetBalanceForUpdate(_ context.Context, clientID int64) (float64, error) {
	balance, ok := f.balances[clientID]
	if !ok {
		return 0, clientRepo.ErrClientNotFound
	}
	return balance, nil
}

func (f *fakeLedgerRepo) InsertTransaction(_ context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error) {
	stored := *tx
	stored.ID = f.nextID
	f.nextID++
	f.transactions = append(f.transactions, &stored)
	return &stored, nil
}

func (f *fakeLedgerRepo) UpdateBalance(_ context.Context, clientID int64, balance float64) error {
	f.balances[clientID] = balance
	return nil
}

func (f *fakeLedgerRepo) ListTransactions(_ context.Context, clientID int64, limit int) ([]*domain.WalletTransaction, error) {
	if _, ok := f.balances[clientID]; !ok {
		return nil, clientRepo.ErrClientNotFound
	}
	out := make([]*domain.WalletTransaction, 0)
	for _, tx := range f.transactions {
		if tx.ClientID == clientID && len(out) < limit {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeMetrics struct {
	txTypes []string
}

func (f *fakeMetrics) IncWalletTransaction(txType string) {
	f.txTypes = append(f.txTypes, txType)
}

func newTestService(repo *fakeLedgerRepo) *Service {
	return NewService(repo, fakeClock{now: time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)}, nopLogger{})
}

func TestApplyTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("списание уменьшает баланс и пишет строку журнала", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 500})
		svc := newTestService(repo)

		balance, err := svc.ApplyTransaction(ctx, 1, -120, domain.TransactionDebit, "бронирование #42")
		require.NoError(t, err)
		assert.Equal(t, 380.0, balance)
		assert.Equal(t, 380.0, repo.balances[1])

		require.Len(t, repo.transactions, 1)
		row := repo.transactions[0]
		assert.Equal(t, -120.0, row.Amount)
		assert.Equal(t, domain.TransactionDebit, row.Type)
		assert.Equal(t, 380.0, row.BalanceAfter)
	})

	t.Run("возврат увеличивает баланс", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 100})
		svc := newTestService(repo)

		balance, err := svc.ApplyTransaction(ctx, 1, 250, domain.TransactionRefund, "отмена бронирования #42")
		require.NoError(t, err)
		assert.Equal(t, 350.0, balance)
	})

	t.Run("баланс может уйти в минус", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 50})
		svc := newTestService(repo)

		balance, err := svc.ApplyTransaction(ctx, 1, -200, domain.TransactionDebit, "бронирование #43")
		require.NoError(t, err)
		assert.Equal(t, -150.0, balance)
	})

	t.Run("неверный знак суммы отклоняется без записи", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 100})
		svc := newTestService(repo)

		_, err := svc.ApplyTransaction(ctx, 1, 100, domain.TransactionDebit, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.ApplyTransaction(ctx, 1, -100, domain.TransactionCredit, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		assert.Empty(t, repo.transactions)
		assert.Equal(t, 100.0, repo.balances[1])
	})

	t.Run("неизвестный тип операции отклоняется", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 100})
		svc := newTestService(repo)

		_, err := svc.ApplyTransaction(ctx, 1, -10, "chargeback", "x")
		assert.ErrorIs(t, err, ErrInvalidTransactionType)
	})

	t.Run("неизвестный клиент", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{})
		svc := newTestService(repo)

		_, err := svc.ApplyTransaction(ctx, 99, -10, domain.TransactionDebit, "x")
		assert.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("успешная операция учитывается в метриках", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 500})
		recorded := &fakeMetrics{}
		svc := newTestService(repo).WithMetrics(recorded)

		_, err := svc.ApplyTransaction(ctx, 1, -120, domain.TransactionDebit, "бронирование #42")
		require.NoError(t, err)
		assert.Equal(t, []string{string(domain.TransactionDebit)}, recorded.txTypes)
	})

	t.Run("отклонённая операция метрику не пишет", func(t *testing.T) {
		repo := newFakeLedgerRepo(map[int64]float64{1: 500})
		recorded := &fakeMetrics{}
		svc := newTestService(repo).WithMetrics(recorded)

		_, err := svc.ApplyTransaction(ctx, 1, 100, domain.TransactionDebit, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, recorded.txTypes)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLedgerRepo(map[int64]float64{1: 1000})
	svc := newTestService(repo)

	_, err := svc.ApplyTransaction(ctx, 1, -100, domain.TransactionDebit, "бронирование #1")
	require.NoError(t, err)
	_, err = svc.ApplyTransaction(ctx, 1, 100, domain.TransactionRefund, "отмена #1")
	require.NoError(t, err)

	history, err := svc.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 900.0, history[0].BalanceAfter)
	assert.Equal(t, 1000.0, history[1].BalanceAfter)
}
