package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索の条件
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	// "new" / "price_asc" / "price_desc"
	Sort string
	// trueなら非公開商品も返す（管理者用）
	IncludeInactive bool
}

type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// カート表示の突合用。見つからないIDは黙って落とす。
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SetActive(ctx context.Context, id int64, isActive bool) error
	SoftDelete(ctx context.Context, id int64) error
}
