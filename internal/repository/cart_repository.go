package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 空になったカートは行ごと消す
	Delete(ctx context.Context, cartID int64) error
}
