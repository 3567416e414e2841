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

type cartTestEnv struct {
	uc        *CartUsecase
	carts     *cartRepoMock
	cartItems *cartItemRepoMock
	products  *productRepoMock
}

func newCartTestEnv() cartTestEnv {
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)

	tx := &txManagerMock{repos: &txReposStub{
		carts:     carts,
		cartItems: cartItems,
		products:  products,
	}}

	return cartTestEnv{
		uc:        NewCartUsecase(tx),
		carts:     carts,
		cartItems: cartItems,
		products:  products,
	}
}

func activeProduct(id int64, price int64, stock int64) model.Product {
	return model.Product{ID: id, Name: "item", Price: price, Stock: stock, IsActive: true}
}

func TestCartAddItem_WithinStock(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	p := activeProduct(10, 1000, 5)
	cart := model.Cart{ID: 1, UserID: 7}

	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)
	env.carts.On("GetOrCreateByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("FindByCartAndProduct", ctx, int64(1), int64(10)).Return(model.CartItem{}, repo.ErrNotFound)
	env.cartItems.On("AddOrMerge", ctx, int64(1), int64(10), int64(3)).Return(nil)

	// AddItem成功後のGetCart
	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 10, Quantity: 3},
	}, nil)
	env.products.On("FindByIDs", ctx, []int64{10}).Return([]model.Product{p}, nil)

	out, err := env.uc.AddItem(ctx, 7, AddCartInput{ProductID: 10, Quantity: 3})

	assert.NoError(t, err)
	assert.Equal(t, int64(3000), out.Total)
	assert.Equal(t, int64(3), out.ItemCount)
	env.cartItems.AssertCalled(t, "AddOrMerge", ctx, int64(1), int64(10), int64(3))
}

// 在庫5で既に3入っている状態に4を足すと上限超過。書き込みは走らない。
func TestCartAddItem_ExceedsStockCeiling(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	p := activeProduct(10, 1000, 5)
	cart := model.Cart{ID: 1, UserID: 7}

	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)
	env.carts.On("GetOrCreateByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("FindByCartAndProduct", ctx, int64(1), int64(10)).Return(model.CartItem{CartID: 1, ProductID: 10, Quantity: 3}, nil)

	_, err := env.uc.AddItem(ctx, 7, AddCartInput{ProductID: 10, Quantity: 4})

	assertHTTPError(t, err, http.StatusBadRequest, "quantity exceeds limit: max 5 per product (stock: 5)")
	env.cartItems.AssertNotCalled(t, "AddOrMerge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 在庫が10より多くても1商品10個まで
func TestCartAddItem_HardLimitOfTen(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	p := activeProduct(10, 1000, 100)
	cart := model.Cart{ID: 1, UserID: 7}

	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)
	env.carts.On("GetOrCreateByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("FindByCartAndProduct", ctx, int64(1), int64(10)).Return(model.CartItem{CartID: 1, ProductID: 10, Quantity: 8}, nil)

	_, err := env.uc.AddItem(ctx, 7, AddCartInput{ProductID: 10, Quantity: 3})

	assertHTTPError(t, err, http.StatusBadRequest, "max 10 per product")
}

func TestCartAddItem_OutOfStock(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	env.products.On("FindByID", ctx, int64(10)).Return(activeProduct(10, 1000, 0), nil)

	_, err := env.uc.AddItem(ctx, 7, AddCartInput{ProductID: 10, Quantity: 1})

	assertHTTPError(t, err, http.StatusBadRequest, "out of stock")
}

func TestCartAddItem_InactiveProductIsNotFound(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	p := activeProduct(10, 1000, 5)
	p.IsActive = false
	env.products.On("FindByID", ctx, int64(10)).Return(p, nil)

	_, err := env.uc.AddItem(ctx, 7, AddCartInput{ProductID: 10, Quantity: 1})

	assertHTTPError(t, err, http.StatusNotFound, "product not found")
}

// 数量0は削除扱い。最後の明細ならカート行ごと消える。
func TestCartUpdateItem_ZeroQuantityRemovesLineAndCart(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}

	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil).Once()
	env.cartItems.On("FindByCartAndProduct", ctx, int64(1), int64(10)).Return(model.CartItem{CartID: 1, ProductID: 10, Quantity: 2}, nil)
	env.cartItems.On("DeleteByCartAndProduct", ctx, int64(1), int64(10)).Return(nil)
	env.cartItems.On("CountByCartID", ctx, int64(1)).Return(0, nil)
	env.carts.On("Delete", ctx, int64(1)).Return(nil)

	// 削除後のGetCartはカート無し
	env.carts.On("FindByUserID", ctx, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	out, err := env.uc.UpdateItem(ctx, 7, 10, UpdateCartItemInput{Quantity: 0})

	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
	env.carts.AssertCalled(t, "Delete", ctx, int64(1))
}

func TestCartUpdateItem_ReappliesCeilingFromCurrentStock(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}

	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("FindByCartAndProduct", ctx, int64(1), int64(10)).Return(model.CartItem{CartID: 1, ProductID: 10, Quantity: 2}, nil)
	// 在庫が3まで減っている
	env.products.On("FindByID", ctx, int64(10)).Return(activeProduct(10, 1000, 3), nil)

	_, err := env.uc.UpdateItem(ctx, 7, 10, UpdateCartItemInput{Quantity: 5})

	assertHTTPError(t, err, http.StatusBadRequest, "max 3 per product (stock: 3)")
	env.cartItems.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 明細が残るうちはカート行は消さない
func TestCartRemoveItem_KeepsCartWhileItemsRemain(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	p := activeProduct(20, 500, 9)

	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("DeleteByCartAndProduct", ctx, int64(1), int64(10)).Return(nil)
	env.cartItems.On("CountByCartID", ctx, int64(1)).Return(1, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 20, Quantity: 2},
	}, nil)
	env.products.On("FindByIDs", ctx, []int64{20}).Return([]model.Product{p}, nil)

	out, err := env.uc.RemoveItem(ctx, 7, 10)

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	env.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// 消えた・非公開になった商品の明細は表示から外し、合計も残った分だけ
func TestCartGetCart_DropsUnresolvableLines(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	kept := activeProduct(20, 500, 9)
	inactive := activeProduct(30, 800, 9)
	inactive.IsActive = false

	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 20, Quantity: 2},
		{CartID: 1, ProductID: 30, Quantity: 1},
		{CartID: 1, ProductID: 40, Quantity: 1}, // 削除済み（FindByIDsが返さない）
	}, nil)
	env.products.On("FindByIDs", ctx, []int64{20, 30, 40}).Return([]model.Product{kept, inactive}, nil)

	out, err := env.uc.GetCart(ctx, 7)

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(20), out.Items[0].ProductID)
	assert.Equal(t, int64(1000), out.Total)
	assert.Equal(t, int64(2), out.ItemCount)
}

// カートが無いユーザーには404ではなく空レスポンス
func TestCartGetCart_NoCartReturnsEmpty(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	env.carts.On("FindByUserID", ctx, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	out, err := env.uc.GetCart(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, CartResponse{Items: []CartItemResponse{}, Total: 0, ItemCount: 0}, out)
}

// 割引中の商品は割引後価格で合計する
func TestCartGetCart_UsesEffectivePrice(t *testing.T) {
	env := newCartTestEnv()
	ctx := context.Background()

	cart := model.Cart{ID: 1, UserID: 7}
	p := activeProduct(20, 1000, 9)
	p.DiscountPercent = 20

	env.carts.On("FindByUserID", ctx, int64(7)).Return(cart, nil)
	env.cartItems.On("ListByCartID", ctx, int64(1)).Return([]model.CartItem{
		{CartID: 1, ProductID: 20, Quantity: 2},
	}, nil)
	env.products.On("FindByIDs", ctx, []int64{20}).Return([]model.Product{p}, nil)

	out, err := env.uc.GetCart(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, int64(800), out.Items[0].Price)
	assert.Equal(t, int64(1600), out.Total)
}
