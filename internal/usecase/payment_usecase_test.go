package usecase

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type paymentTestEnv struct {
	uc         *PaymentUsecase
	orders     *orderRepoMock
	orderItems *orderItemRepoMock
	payments   *paymentRepoMock
	inventory  *inventoryRepoMock
}

func newPaymentTestEnv() paymentTestEnv {
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)
	payments := new(paymentRepoMock)
	inventory := new(inventoryRepoMock)

	tx := &txManagerMock{repos: &txReposStub{
		orders:     orders,
		orderItems: orderItems,
		payments:   payments,
		inventory:  inventory,
	}}

	return paymentTestEnv{
		uc:         NewPaymentUsecase(tx),
		orders:     orders,
		orderItems: orderItems,
		payments:   payments,
		inventory:  inventory,
	}
}

func pendingOrder(id int64, userID int64, total int64) model.Order {
	return model.Order{
		ID:            id,
		UserID:        userID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Total:         total,
	}
}

func TestPay_SuccessDecrementsStockAndConfirms(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)
	items := []model.OrderItem{
		{OrderID: 55, ProductID: 10, ProductNameSnapshot: "a", Quantity: 2},
		{OrderID: 55, ProductID: 20, ProductNameSnapshot: "b", Quantity: 1},
	}

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)
	env.orderItems.On("ListByOrderID", ctx, int64(55)).Return(items, nil)
	env.inventory.On("DecreaseStockIfEnough", ctx, int64(10), int64(2)).Return(true, nil)
	env.inventory.On("DecreaseStockIfEnough", ctx, int64(20), int64(1)).Return(true, nil)
	env.payments.On("Create", ctx, mock.AnythingOfType("model.Payment")).
		Return(model.Payment{OrderID: 55, Method: "card", Amount: 4680, Status: model.PaymentStatusPaid}, nil)
	env.orders.On("UpdatePaymentStatus", ctx, int64(55), model.PaymentStatusPaid).Return(nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusConfirmed).Return(nil)

	out, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assert.NoError(t, err)
	assert.Equal(t, string(model.PaymentStatusPaid), out.PaymentStatus)
	assert.Equal(t, string(model.OrderStatusConfirmed), out.OrderStatus)
	assert.Equal(t, int64(4680), out.Amount)
	env.inventory.AssertNumberOfCalls(t, "DecreaseStockIfEnough", 2)
}

// 途中の商品で在庫が切れたら全体をエラーで巻き戻す（支払い行は作らない）
func TestPay_InsufficientStockAbortsWholePayment(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)
	items := []model.OrderItem{
		{OrderID: 55, ProductID: 10, ProductNameSnapshot: "a", Quantity: 2},
		{OrderID: 55, ProductID: 20, ProductNameSnapshot: "b", Quantity: 1},
	}

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)
	env.orderItems.On("ListByOrderID", ctx, int64(55)).Return(items, nil)
	env.inventory.On("DecreaseStockIfEnough", ctx, int64(10), int64(2)).Return(true, nil)
	env.inventory.On("DecreaseStockIfEnough", ctx, int64(20), int64(1)).Return(false, nil)

	_, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assertHTTPError(t, err, http.StatusBadRequest, "out of stock: b")
	env.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.orders.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 失敗はpayment_statusをfailedにするだけ。支払い行も在庫減算も無し。
func TestPay_FailureOnlyMarksFailed(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)
	env.orders.On("UpdatePaymentStatus", ctx, int64(55), model.PaymentStatusFailed).Return(nil)

	out, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "failure"})

	assert.NoError(t, err)
	assert.Equal(t, string(model.PaymentStatusFailed), out.PaymentStatus)
	env.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestPay_AlreadyPaid(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)
	o.PaymentStatus = model.PaymentStatusPaid

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)

	_, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assertHTTPError(t, err, http.StatusConflict, "already paid")
}

func TestPay_CancelledOrder(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)
	o.Status = model.OrderStatusCancelled

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)

	_, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assertHTTPError(t, err, http.StatusBadRequest, "cancelled")
}

// 同時に2本の支払いが走った場合、uniqueに弾かれた側は409
func TestPay_ConcurrentDuplicateGetsConflict(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	o := pendingOrder(55, 7, 4680)
	items := []model.OrderItem{{OrderID: 55, ProductID: 10, ProductNameSnapshot: "a", Quantity: 1}}

	env.orders.On("FindByID", ctx, int64(55)).Return(o, nil)
	env.orderItems.On("ListByOrderID", ctx, int64(55)).Return(items, nil)
	env.inventory.On("DecreaseStockIfEnough", ctx, int64(10), int64(1)).Return(true, nil)
	env.payments.On("Create", ctx, mock.Anything).Return(model.Payment{}, repo.ErrConflict)

	_, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assertHTTPError(t, err, http.StatusConflict, "payment already exists")
}

func TestPay_OtherUsersOrderIsHidden(t *testing.T) {
	env := newPaymentTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(model.Order{ID: 55, UserID: 99}, nil)

	_, err := env.uc.Pay(ctx, 7, 55, PayInput{Method: "card", Result: "success"})

	assertHTTPError(t, err, http.StatusNotFound, "not found")
}
