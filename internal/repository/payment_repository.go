package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type PaymentRepository interface {
	// 1注文1支払い。二重登録はErrConflict。
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
}
