package model

import "time"

// 支払いは1注文につき最大1件（order_idで一意）。
type Payment struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64         `gorm:"not null;uniqueIndex" json:"order_id"`
	Method    string        `gorm:"type:varchar(30);not null" json:"method"`
	Amount    int64         `gorm:"not null" json:"amount"`
	Status    PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
}
