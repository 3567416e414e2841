package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

// DI
func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

// 公開側: アクティブなカテゴリのみ
func (u *CategoryUsecase) ListPublic(ctx context.Context) ([]model.Category, error) {
	categories, err := u.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return categories, nil
}

// 管理側: 全カテゴリ
func (u *CategoryUsecase) ListAdmin(ctx context.Context) ([]model.Category, error) {
	categories, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return categories, nil
}

type CategoryInput struct {
	Name string
	Slug string
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}

	created, err := u.categoryRepo.Create(ctx, model.Category{
		Name:     name,
		Slug:     slug,
		IsActive: true,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, categoryID int64, in CategoryInput) (model.Category, error) {
	if categoryID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}

	err := u.categoryRepo.Update(ctx, model.Category{ID: categoryID, Name: name, Slug: slug})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated, err := u.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *CategoryUsecase) SetActive(ctx context.Context, categoryID int64, isActive bool) error {
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.categoryRepo.SetActive(ctx, categoryID, isActive)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
