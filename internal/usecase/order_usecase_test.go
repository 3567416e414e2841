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

type orderTestEnv struct {
	uc         *OrderUsecase
	orders     *orderRepoMock
	orderItems *orderItemRepoMock
	carts      *cartRepoMock
	cartItems  *cartItemRepoMock
	products   *productRepoMock
}

func newOrderTestEnv(pricing OrderPricing) orderTestEnv {
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)

	tx := &txManagerMock{repos: &txReposStub{
		orders:     orders,
		orderItems: orderItems,
		carts:      carts,
		cartItems:  cartItems,
		products:   products,
	}}

	return orderTestEnv{
		uc:         NewOrderUsecase(tx, pricing),
		orders:     orders,
		orderItems: orderItems,
		carts:      carts,
		cartItems:  cartItems,
		products:   products,
	}
}

var testPricing = OrderPricing{TaxRatePercent: 10, ShippingFee: 500, FreeShippingOver: 5000}

func TestCheckout_ComputesSummaryAndConsumesCart(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	p1 := activeProduct(10, 1000, 5)
	p2 := activeProduct(20, 2000, 5)
	p2.DiscountPercent = 10 // 実売1800

	env.orders.On("FindByIdempotencyKey", ctx, int64(7), "key-1").Return(model.Order{}, false, nil)
	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 10, Quantity: 2},
		{CartID: 1, ProductID: 20, Quantity: 1},
	}, nil)
	env.products.On("FindByID", ctx, int64(10)).Return(p1, nil)
	env.products.On("FindByID", ctx, int64(20)).Return(p2, nil)

	var createdOrder model.Order
	env.orders.On("Create", ctx, mock.AnythingOfType("model.Order")).Run(func(args mock.Arguments) {
		createdOrder = args.Get(1).(model.Order)
	}).Return(55, nil)
	env.orderItems.On("CreateBulk", ctx, int64(55), mock.Anything).Return(nil)
	env.cartItems.On("DeleteAllByCartID", ctx, int64(1)).Return(nil)
	env.carts.On("Delete", ctx, int64(1)).Return(nil)

	out, err := env.uc.Checkout(ctx, 7, CheckoutInput{IdempotencyKey: "key-1"})

	assert.NoError(t, err)

	// subtotal=2*1000+1*2000=4000, discount=200, payable=3800 → 送料500, 税380
	assert.Equal(t, int64(4000), out.Subtotal)
	assert.Equal(t, int64(200), out.Discount)
	assert.Equal(t, int64(500), out.ShippingFee)
	assert.Equal(t, int64(380), out.Tax)
	assert.Equal(t, out.Subtotal+out.ShippingFee+out.Tax-out.Discount, out.Total)

	assert.Equal(t, string(model.OrderStatusPending), out.Status)
	assert.Equal(t, string(model.PaymentStatusPending), out.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, out.OrderNumber)
	assert.Equal(t, createdOrder.Total, out.Total)

	env.cartItems.AssertCalled(t, "DeleteAllByCartID", ctx, int64(1))
	env.carts.AssertCalled(t, "Delete", ctx, int64(1))
}

func TestCheckout_FreeShippingOverThreshold(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	p := activeProduct(10, 3000, 10)

	env.orders.On("FindByIdempotencyKey", ctx, int64(7), "key-2").Return(model.Order{}, false, nil)
	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 10, Quantity: 2},
	}, nil)
	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)
	env.orders.On("Create", ctx, mock.Anything).Return(56, nil)
	env.orderItems.On("CreateBulk", ctx, int64(56), mock.Anything).Return(nil)
	env.cartItems.On("DeleteAllByCartID", ctx, int64(1)).Return(nil)
	env.carts.On("Delete", ctx, int64(1)).Return(nil)

	out, err := env.uc.Checkout(ctx, 7, CheckoutInput{IdempotencyKey: "key-2"})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.ShippingFee)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	env.orders.On("FindByIdempotencyKey", ctx, int64(7), "key-3").Return(model.Order{}, false, nil)
	env.carts.On("FindByUserID", ctx, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	_, err := env.uc.Checkout(ctx, 7, CheckoutInput{IdempotencyKey: "key-3"})

	assertHTTPError(t, err, http.StatusBadRequest, "cart is empty")
	env.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 同じキーの再送には既存の注文をそのまま返す（二重注文にならない）
func TestCheckout_IdempotentReplay(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	existing := model.Order{ID: 55, OrderNumber: "ORD-20260901-ABCDEF01", UserID: 7, Status: model.OrderStatusPending, Total: 4680}

	env.orders.On("FindByIdempotencyKey", ctx, int64(7), "key-1").Return(existing, true, nil)
	env.orderItems.On("ListByOrderID", ctx, int64(55)).Return([]model.OrderItem{}, nil)

	out, err := env.uc.Checkout(ctx, 7, CheckoutInput{IdempotencyKey: "key-1"})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)
	env.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	p := activeProduct(10, 1000, 1)

	env.orders.On("FindByIdempotencyKey", ctx, int64(7), "key-4").Return(model.Order{}, false, nil)
	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 10, Quantity: 3},
	}, nil)
	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)

	_, err := env.uc.Checkout(ctx, 7, CheckoutInput{IdempotencyKey: "key-4"})

	assertHTTPError(t, err, http.StatusBadRequest, "insufficient stock")
	env.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 他人の注文は404で隠す
func TestGetMyOrderDetail_OtherUsersOrderIsHidden(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	env.orders.On("FindByID", ctx, int64(55)).Return(model.Order{ID: 55, UserID: 99}, nil)

	_, err := env.uc.GetMyOrderDetail(ctx, 7, 55)

	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestGetTracking_ReturnsTimelineForOwnOrder(t *testing.T) {
	env := newOrderTestEnv(testPricing)
	ctx := context.Background()

	o := baseOrder(model.OrderStatusShipped)
	o.UserID = 7
	env.orders.On("FindByID", ctx, int64(1)).Return(o, nil)

	timeline, err := env.uc.GetTracking(ctx, 7, 1)

	assert.NoError(t, err)
	assert.Len(t, timeline, 5)
	assert.True(t, timeline[2].Completed)
	assert.False(t, timeline[3].Completed)
}
