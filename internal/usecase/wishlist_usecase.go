package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type WishlistUsecase struct {
	wishlistRepo repo.WishlistRepository
	productRepo  repo.ProductRepository
}

// DI
func NewWishlistUsecase(wishlistRepo repo.WishlistRepository, productRepo repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

type WishlistItemResponse struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	EffectivePrice int64  `json:"effective_price"`
	InStock        bool   `json:"in_stock"`
}

type WishlistResponse struct {
	Items []WishlistItemResponse `json:"items"`
}

// カート表示と同じ方針で、解決できない商品は黙って外す。
func (u *WishlistUsecase) Get(ctx context.Context, userID int64) (WishlistResponse, error) {
	if userID <= 0 {
		return WishlistResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	rows, err := u.wishlistRepo.ListByUserID(ctx, userID)
	if err != nil {
		return WishlistResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}

	products, err := u.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return WishlistResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := WishlistResponse{Items: []WishlistItemResponse{}}
	for _, row := range rows {
		p, ok := byID[row.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		out.Items = append(out.Items, WishlistItemResponse{
			ProductID:      p.ID,
			Name:           p.Name,
			Price:          p.Price,
			EffectivePrice: p.EffectivePrice(),
			InStock:        p.Stock > 0,
		})
	}
	return out, nil
}

// Add は冪等（既に入っていれば成功扱い）。
func (u *WishlistUsecase) Add(ctx context.Context, userID int64, productID int64) (WishlistResponse, error) {
	if userID <= 0 {
		return WishlistResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return WishlistResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return WishlistResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return WishlistResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return WishlistResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	if err := u.wishlistRepo.Add(ctx, userID, productID); err != nil {
		return WishlistResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.Get(ctx, userID)
}

func (u *WishlistUsecase) Remove(ctx context.Context, userID int64, productID int64) (WishlistResponse, error) {
	if userID <= 0 {
		return WishlistResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return WishlistResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.wishlistRepo.Remove(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return WishlistResponse{}, NewHTTPError(http.StatusNotFound, "item not found")
	}
	if err != nil {
		return WishlistResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.Get(ctx, userID)
}
