package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminCustomerUsecase struct {
	userRepo  repo.UserRepository
	orderRepo repo.OrderRepository
	auditRepo repo.AuditLogRepository
}

// DI
func NewAdminCustomerUsecase(
	userRepo repo.UserRepository,
	orderRepo repo.OrderRepository,
	auditRepo repo.AuditLogRepository,
) *AdminCustomerUsecase {
	return &AdminCustomerUsecase{userRepo: userRepo, orderRepo: orderRepo, auditRepo: auditRepo}
}

type CustomerListResponse struct {
	Items []UserResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type CustomerDetailResponse struct {
	User   UserResponse  `json:"user"`
	Orders []OrderOutput `json:"orders"`
}

func (u *AdminCustomerUsecase) List(ctx context.Context, q repo.UserListQuery) (CustomerListResponse, error) {
	if q.Page < 1 {
		return CustomerListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return CustomerListResponse{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	users, total, err := u.userRepo.List(ctx, q)
	if err != nil {
		return CustomerListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]UserResponse, 0, len(users))
	for _, usr := range users {
		items = append(items, toUserResponse(usr))
	}
	return CustomerListResponse{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// 顧客詳細は注文履歴つき
func (u *AdminCustomerUsecase) Detail(ctx context.Context, userID int64) (CustomerDetailResponse, error) {
	if userID <= 0 {
		return CustomerDetailResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CustomerDetailResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CustomerDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 直近の注文だけ添える
	orders, _, err := u.orderRepo.ListByUserID(ctx, userID, 1, 20)
	if err != nil {
		return CustomerDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, nil))
	}
	return CustomerDetailResponse{User: toUserResponse(user), Orders: outs}, nil
}

// Deactivate は停止と同時に全トークンを失効させる。
func (u *AdminCustomerUsecase) Deactivate(ctx context.Context, actorAdminUserID int64, userID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if userID == actorAdminUserID {
		return NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}

	err := u.userRepo.SetActive(ctx, userID, false)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	beforeJSON, _ := json.Marshal(map[string]bool{"is_active": true})
	afterJSON, _ := json.Marshal(map[string]bool{"is_active": false})
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionDeactivateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	})
	return nil
}

func (u *AdminCustomerUsecase) Reactivate(ctx context.Context, actorAdminUserID int64, userID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.userRepo.SetActive(ctx, userID, true)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
