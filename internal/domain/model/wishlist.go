package model

import "time"

// お気に入り。同一商品は1行（user_id + product_id で一意）。
type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index;uniqueIndex:uq_wishlist_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:uq_wishlist_user_product" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
