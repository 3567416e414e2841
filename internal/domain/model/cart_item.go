package model

import "time"

// カートの明細。同一商品は1行にまとめる（cart_id + product_id で一意）。
// 表示価格は常に商品テーブルから引き直すので、ここでは持たない。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;index;uniqueIndex:uq_cart_product" json:"cart_id"`
	ProductID int64     `gorm:"not null;index;uniqueIndex:uq_cart_product" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
