package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 配達予定は出荷から3日後
const expectedDeliveryLeadTime = 72 * time.Hour

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// ステータスの前進順。cancelledはこの列の外側で扱う。
var orderStatusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:    0,
	model.OrderStatusConfirmed:  1,
	model.OrderStatusProcessing: 2,
	model.OrderStatusShipped:    3,
	model.OrderStatusDelivered:  4,
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		if _, ok := orderStatusRank[model.OrderStatus(s)]; !ok && s != string(model.OrderStatusCancelled) {
			return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は注文ステータスを進める。
// 前進のみ許可。cancelledは出荷前だけ許可し、支払い済みなら在庫を戻す。
// shipped/deliveredへの遷移で配送タイムスタンプを刻む。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if _, ok := orderStatusRank[newStatus]; !ok && newStatus != model.OrderStatusCancelled {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var beforeStatus model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		beforeStatus = o.Status

		// 同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}

		// 終端ガード
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "cannot change cancelled order")
		}
		if o.Status == model.OrderStatusDelivered {
			return NewHTTPError(http.StatusBadRequest, "cannot change delivered order")
		}

		if newStatus == model.OrderStatusCancelled {
			// 出荷後のキャンセルは不可
			if orderStatusRank[o.Status] >= orderStatusRank[model.OrderStatusShipped] {
				return NewHTTPError(http.StatusBadRequest, "cannot cancel shipped order")
			}

			// 支払い済みなら引き当て済み在庫を戻す
			if o.PaymentStatus == model.PaymentStatusPaid {
				items, err := r.OrderItems().ListByOrderID(ctx, orderID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				for _, it := range items {
					if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
						return NewHTTPError(http.StatusInternalServerError, "db error")
					}
				}
			}
		} else {
			// 前進のみ
			if orderStatusRank[newStatus] <= orderStatusRank[o.Status] {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot move order from %s to %s", o.Status, newStatus))
			}
		}

		// 配送タイムスタンプ
		shipping := o.Shipping
		now := time.Now()
		switch newStatus {
		case model.OrderStatusShipped:
			shipping.ShippedAt = &now
			expected := now.Add(expectedDeliveryLeadTime)
			shipping.ExpectedDeliveryAt = &expected
		case model.OrderStatusDelivered:
			shipping.DeliveredAt = &now
		}
		if shipping != o.Shipping {
			if err := r.Orders().UpdateShipping(ctx, orderID, shipping); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return err
	}

	if beforeStatus != newStatus {
		beforeJSON, _ := json.Marshal(map[string]string{"status": string(beforeStatus)})
		afterJSON, _ := json.Marshal(map[string]string{"status": string(newStatus)})
		_ = u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    time.Now(),
		})
	}
	return nil
}
