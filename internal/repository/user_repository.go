package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type UserListQuery struct {
	Page  int
	Limit int
	Q     string
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, user *model.User) error
	// 管理者用の一覧（メール・名前で部分一致）
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
	SetActive(ctx context.Context, userID int64, isActive bool) error
	// 全トークン失効用にtoken_versionを+1
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
