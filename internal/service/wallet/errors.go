package wallet

import "errors"

var (
	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidTransactionType возвращается при неизвестном типе операции
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidAmount возвращается, когда знак суммы не соответствует типу
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("wallet service: internal error")
)
