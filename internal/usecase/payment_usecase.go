package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 支払い処理。ゲートウェイは外部なので、ここでは結果の記帳だけを行う。
// 在庫の引き当ては支払い完了のタイミングで、全明細まとめて1トランザクションで行う。
// 途中の商品で在庫が足りなければ全体を巻き戻す。
type PaymentUsecase struct {
	tx repo.TransactionManager
}

func NewPaymentUsecase(tx repo.TransactionManager) *PaymentUsecase {
	return &PaymentUsecase{tx: tx}
}

type PayInput struct {
	Method string
	// "success" / "failure"
	Result string
}

type PaymentResponse struct {
	OrderID       int64      `json:"order_id"`
	Method        string     `json:"method"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentStatus string     `json:"payment_status"`
	OrderStatus   string     `json:"order_status"`
}

// Pay は注文の支払い結果を記録する。
// 成功時: 支払い行を作成（1注文1件）、在庫減算、payment_status=paid、status=confirmed。
// 失敗時: payment_statusをfailedにするだけで支払い行は作らない（成功時の再試行を塞がない）。
func (u *PaymentUsecase) Pay(ctx context.Context, userID int64, orderID int64, in PayInput) (PaymentResponse, error) {
	if userID <= 0 {
		return PaymentResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Method == "" {
		return PaymentResponse{}, NewHTTPError(http.StatusBadRequest, "invalid method")
	}
	if in.Result != "success" && in.Result != "failure" {
		return PaymentResponse{}, NewHTTPError(http.StatusBadRequest, "invalid result")
	}

	var out PaymentResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}

		if o.PaymentStatus == model.PaymentStatusPaid {
			return NewHTTPError(http.StatusConflict, "order already paid")
		}
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "order is cancelled")
		}

		if in.Result == "failure" {
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusFailed); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = PaymentResponse{
				OrderID:       orderID,
				Method:        in.Method,
				Amount:        o.Total,
				Status:        string(model.PaymentStatusFailed),
				PaymentStatus: string(model.PaymentStatusFailed),
				OrderStatus:   string(o.Status),
			}
			return nil
		}

		// 在庫を全明細まとめて引き当てる
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("out of stock: %s", it.ProductNameSnapshot))
			}
		}

		now := time.Now()
		payment := model.Payment{
			OrderID:   orderID,
			Method:    in.Method,
			Amount:    o.Total,
			Status:    model.PaymentStatusPaid,
			PaidAt:    &now,
			CreatedAt: now,
		}

		created, err := r.Payments().Create(ctx, payment)
		if err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewHTTPError(http.StatusConflict, "payment already exists for this order")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusConfirmed); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = PaymentResponse{
			OrderID:       orderID,
			Method:        created.Method,
			Amount:        created.Amount,
			Status:        string(created.Status),
			PaidAt:        created.PaidAt,
			PaymentStatus: string(model.PaymentStatusPaid),
			OrderStatus:   string(model.OrderStatusConfirmed),
		}
		return nil
	})

	if err != nil {
		return PaymentResponse{}, err
	}
	return out, nil
}
