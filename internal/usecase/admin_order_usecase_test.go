package usecase

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type adminOrderTestEnv struct {
	uc         *AdminOrderUsecase
	orders     *orderRepoMock
	orderItems *orderItemRepoMock
	inventory  *inventoryRepoMock
	audit      *auditLogRepoMock
}

func newAdminOrderTestEnv() adminOrderTestEnv {
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)
	inventory := new(inventoryRepoMock)
	audit := new(auditLogRepoMock)

	tx := &txManagerMock{repos: &txReposStub{
		orders:     orders,
		orderItems: orderItems,
		inventory:  inventory,
	}}

	return adminOrderTestEnv{
		uc:         NewAdminOrderUsecase(tx, audit),
		orders:     orders,
		orderItems: orderItems,
		inventory:  inventory,
		audit:      audit,
	}
}

func adminOrder(status model.OrderStatus, payment model.PaymentStatus) model.Order {
	return model.Order{ID: 55, UserID: 7, Status: status, PaymentStatus: payment}
}

func TestAdminUpdateStatus_ForwardMove(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusConfirmed, model.PaymentStatusPaid), nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusProcessing).Return(nil)
	env.audit.On("Create", ctx, mock.AnythingOfType("model.AuditLog")).Return(nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "processing"})

	assert.NoError(t, err)
	env.audit.AssertCalled(t, "Create", ctx, mock.AnythingOfType("model.AuditLog"))
}

func TestAdminUpdateStatus_BackwardMoveRejected(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusShipped, model.PaymentStatusPaid), nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "confirmed"})

	assertHTTPError(t, err, http.StatusBadRequest, "cannot move order from shipped to confirmed")
	env.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_SameStatusIsNoop(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusConfirmed, model.PaymentStatusPaid), nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "confirmed"})

	assert.NoError(t, err)
	env.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	env.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_TerminalStatesAreLocked(t *testing.T) {
	for _, terminal := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			env := newAdminOrderTestEnv()
			ctx := context.Background()

			env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(terminal, model.PaymentStatusPaid), nil)

			err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "processing"})

			assertHTTPError(t, err, http.StatusBadRequest, "cannot change")
		})
	}
}

func TestAdminUpdateStatus_InvalidStatus(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "teleported"})

	assertHTTPError(t, err, http.StatusBadRequest, "invalid status")
}

// 出荷への遷移でshipped_atと配達予定が刻まれる
func TestAdminUpdateStatus_ShippedStampsTimestamps(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusProcessing, model.PaymentStatusPaid), nil)

	var stamped model.ShippingDetail
	env.orders.On("UpdateShipping", ctx, int64(55), mock.AnythingOfType("model.ShippingDetail")).
		Run(func(args mock.Arguments) { stamped = args.Get(2).(model.ShippingDetail) }).Return(nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusShipped).Return(nil)
	env.audit.On("Create", ctx, mock.Anything).Return(nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "shipped"})

	assert.NoError(t, err)
	if assert.NotNil(t, stamped.ShippedAt) && assert.NotNil(t, stamped.ExpectedDeliveryAt) {
		assert.Equal(t, stamped.ShippedAt.Add(expectedDeliveryLeadTime), *stamped.ExpectedDeliveryAt)
	}
	assert.Nil(t, stamped.DeliveredAt)
}

func TestAdminUpdateStatus_DeliveredStampsDeliveredAt(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusShipped, model.PaymentStatusPaid), nil)

	var stamped model.ShippingDetail
	env.orders.On("UpdateShipping", ctx, int64(55), mock.AnythingOfType("model.ShippingDetail")).
		Run(func(args mock.Arguments) { stamped = args.Get(2).(model.ShippingDetail) }).Return(nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusDelivered).Return(nil)
	env.audit.On("Create", ctx, mock.Anything).Return(nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "delivered"})

	assert.NoError(t, err)
	assert.NotNil(t, stamped.DeliveredAt)
}

// 支払い済み注文のキャンセルは在庫を戻す
func TestAdminUpdateStatus_CancelPaidOrderRestoresStock(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusConfirmed, model.PaymentStatusPaid), nil)
	env.orderItems.On("ListByOrderID", ctx, int64(55)).Return([]model.OrderItem{
		{OrderID: 55, ProductID: 10, Quantity: 2},
		{OrderID: 55, ProductID: 20, Quantity: 1},
	}, nil)
	env.inventory.On("IncreaseStock", ctx, int64(10), int64(2)).Return(nil)
	env.inventory.On("IncreaseStock", ctx, int64(20), int64(1)).Return(nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusCancelled).Return(nil)
	env.audit.On("Create", ctx, mock.Anything).Return(nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "cancelled"})

	assert.NoError(t, err)
	env.inventory.AssertNumberOfCalls(t, "IncreaseStock", 2)
}

// 未払いのキャンセルは在庫を触らない（引き当てがまだ無い）
func TestAdminUpdateStatus_CancelUnpaidOrderKeepsStock(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusPending, model.PaymentStatusPending), nil)
	env.orders.On("UpdateStatus", ctx, int64(55), model.OrderStatusCancelled).Return(nil)
	env.audit.On("Create", ctx, mock.Anything).Return(nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "cancelled"})

	assert.NoError(t, err)
	env.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_CancelAfterShipmentRejected(t *testing.T) {
	env := newAdminOrderTestEnv()
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(adminOrder(model.OrderStatusShipped, model.PaymentStatusPaid), nil)

	err := env.uc.UpdateStatus(ctx, 1, 55, AdminUpdateOrderStatusInput{Status: "cancelled"})

	assertHTTPError(t, err, http.StatusBadRequest, "cannot cancel shipped order")
	env.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}
