package service

import (
	"context"

	"github.com/bigkaa/skillmatch/internal/repository"
)

// TxRunner выполняет fn в одной транзакции с набором репозиториев,
// привязанных к ней. Любая ошибка fn откатывает транзакцию.
// Реализуется *repository.TxRunner.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repos *repository.Repositories) error) error
}
