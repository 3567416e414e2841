package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	ListByProductID(ctx context.Context, productID int64, page int, limit int) ([]model.Review, int64, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.Review, error)
	Create(ctx context.Context, r model.Review) (model.Review, error)
}
