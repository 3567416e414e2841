package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewAdminProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *AdminProductUsecase {
	return &AdminProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

type AdminProductInput struct {
	CategoryID      *int64
	Name            string
	Description     string
	Price           int64
	DiscountPercent int64
	Stock           int64
	IsActive        bool
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if in.DiscountPercent < 0 || in.DiscountPercent > 90 {
		return NewHTTPError(http.StatusBadRequest, "invalid discount_percent")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid stock")
	}
	return nil
}

// 非公開商品も含めた一覧
func (u *AdminProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListResponse, error) {
	if in.Page < 1 {
		return ProductListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	products, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               in.Q,
		CategoryID:      in.CategoryID,
		Sort:            in.Sort,
		IncludeInactive: true,
	})
	if err != nil {
		return ProductListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}
	return ProductListResponse{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *AdminProductUsecase) Create(ctx context.Context, actorAdminUserID int64, in AdminProductInput) (ProductResponse, error) {
	if actorAdminUserID <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return ProductResponse{}, err
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		CategoryID:      in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		DiscountPercent: in.DiscountPercent,
		Stock:           in.Stock,
		IsActive:        in.IsActive,
	})
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(created), nil
}

func (u *AdminProductUsecase) Update(ctx context.Context, actorAdminUserID int64, productID int64, in AdminProductInput) (ProductResponse, error) {
	if actorAdminUserID <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := in.validate(); err != nil {
		return ProductResponse{}, err
	}

	before, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = u.productRepo.Update(ctx, model.Product{
		ID:              productID,
		CategoryID:      in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price,
		DiscountPercent: in.DiscountPercent,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, actorAdminUserID, model.AuditActionUpdateProduct, productID,
		map[string]interface{}{"name": before.Name, "price": before.Price, "discount_percent": before.DiscountPercent},
		map[string]interface{}{"name": in.Name, "price": in.Price, "discount_percent": in.DiscountPercent},
	)

	after, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(after), nil
}

func (u *AdminProductUsecase) SetActive(ctx context.Context, actorAdminUserID int64, productID int64, isActive bool) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.productRepo.SetActive(ctx, productID, isActive)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AdminProductUsecase) Delete(ctx context.Context, actorAdminUserID int64, productID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// SetStock は在庫の現在値を設定し、調整履歴と監査ログを残す。
func (u *AdminProductUsecase) SetStock(ctx context.Context, actorAdminUserID int64, productID int64, newStock int64, reason string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid stock")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	before, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   productID,
		AdminUserID: actorAdminUserID,
		Delta:       newStock - before.Stock,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, actorAdminUserID, model.AuditActionUpdateStock, productID,
		map[string]interface{}{"stock": before.Stock},
		map[string]interface{}{"stock": newStock, "reason": reason},
	)
	return nil
}

// 監査ログの失敗で本処理は落とさない
func (u *AdminProductUsecase) writeAudit(ctx context.Context, actorID int64, action model.AuditAction, resourceID int64, before, after map[string]interface{}) {
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)

	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   resourceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	})
}
