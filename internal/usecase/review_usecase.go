package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewUsecase struct {
	reviewRepo  repo.ReviewRepository
	productRepo repo.ProductRepository
}

// DI
func NewReviewUsecase(reviewRepo repo.ReviewRepository, productRepo repo.ProductRepository) *ReviewUsecase {
	return &ReviewUsecase{reviewRepo: reviewRepo, productRepo: productRepo}
}

type CreateReviewInput struct {
	Rating  int
	Comment string
}

type ReviewListResponse struct {
	Items []model.Review `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (u *ReviewUsecase) ListForProduct(ctx context.Context, productID int64, page int, limit int) (ReviewListResponse, error) {
	if productID <= 0 {
		return ReviewListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if page < 1 {
		return ReviewListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ReviewListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewListResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ReviewListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	reviews, total, err := u.reviewRepo.ListByProductID(ctx, productID, page, limit)
	if err != nil {
		return ReviewListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	return ReviewListResponse{Items: reviews, Total: total, Page: page, Limit: limit}, nil
}

// 1ユーザー1商品につき1件まで。
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, productID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	now := time.Now()
	created, err := u.reviewRepo.Create(ctx, model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Review{}, NewHTTPError(http.StatusConflict, "you have already reviewed this product")
	}
	if err != nil {
		return model.Review{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}
