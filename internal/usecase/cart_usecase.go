package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 1商品あたりの数量上限。在庫がこれより少なければ在庫が上限になる。
const maxQuantityPerProduct int64 = 10

// /cart の業務ロジック。
// 追加・変更・削除は全体をトランザクションで囲み、途中で失敗したら何も変えない。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Total     int64              `json:"total"`
	ItemCount int64              `json:"item_count"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート表示用のレスポンスを作る。
// カートが無ければ空レスポンス（404にはしない）。
// 商品が消えていた・非公開になっていた明細は表示から外すだけで、保存データは触らない。
// 価格は常に商品テーブルの現在値から引き直す。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	out := emptyCartResponse()

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		resp, err := buildCartResponse(ctx, r, items)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddItem はカートに商品を追加する（同一商品は数量加算で1行にまとめる）。
// 上限は min(在庫, 10)。超える場合は何も変えずにエラーを返す。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if p.Stock <= 0 {
			return NewHTTPError(http.StatusBadRequest, "out of stock")
		}

		maxQty := maxQuantityPerProduct
		if p.Stock < maxQty {
			maxQty = p.Stock
		}

		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var existingQty int64
		item, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, in.ProductID)
		if err == nil {
			existingQty = item.Quantity
		} else if !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if existingQty+in.Quantity > maxQty {
			return NewHTTPError(http.StatusBadRequest, quantityExceededMessage(maxQty, p.Stock))
		}

		if err := r.CartItems().AddOrMerge(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.GetCart(ctx, userID)
}

// UpdateItem は明細の数量を変更する。
// 上限は保存時ではなく今の在庫から毎回引き直す。0以下は削除と同じ扱い。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, productID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if _, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "item not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 0以下は削除扱い
		if in.Quantity <= 0 {
			return removeLine(ctx, r, cart.ID, productID)
		}

		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		maxQty := maxQuantityPerProduct
		if p.Stock < maxQty {
			maxQty = p.Stock
		}
		if in.Quantity > maxQty {
			return NewHTTPError(http.StatusBadRequest, quantityExceededMessage(maxQty, p.Stock))
		}

		if err := r.CartItems().UpdateQuantity(ctx, cart.ID, productID, in.Quantity); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "item not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.GetCart(ctx, userID)
}

// RemoveItem は明細を1つ削除する。最後の明細が消えたらカート行ごと消す。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return removeLine(ctx, r, cart.ID, productID)
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.GetCart(ctx, userID)
}

// ClearCart は全明細とカート行を削除する。カートが無ければ何もしない。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().DeleteAllByCartID(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Delete(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return emptyCartResponse(), nil
}

func removeLine(ctx context.Context, r repo.TxRepos, cartID int64, productID int64) error {
	if err := r.CartItems().DeleteByCartAndProduct(ctx, cartID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "item not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 空になったらカート行も消す
	count, err := r.CartItems().CountByCartID(ctx, cartID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if count == 0 {
		if err := r.Carts().Delete(ctx, cartID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

// 明細を商品テーブルと突き合わせてレスポンスを作る。
// 解決できない明細（削除済み・非公開）は除外し、合計と点数は残った分だけで数える。
func buildCartResponse(ctx context.Context, r repo.TxRepos, items []model.CartItem) (CartResponse, error) {
	if len(items) == 0 {
		return emptyCartResponse(), nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := emptyCartResponse()
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.IsActive {
			continue
		}

		price := p.EffectivePrice()
		lineTotal := price * it.Quantity

		out.Items = append(out.Items, CartItemResponse{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     price,
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		out.Total += lineTotal
		out.ItemCount += it.Quantity
	}
	return out, nil
}

func emptyCartResponse() CartResponse {
	return CartResponse{Items: []CartItemResponse{}, Total: 0, ItemCount: 0}
}

func quantityExceededMessage(maxQty int64, stock int64) string {
	return fmt.Sprintf("quantity exceeds limit: max %d per product (stock: %d)", maxQty, stock)
}
