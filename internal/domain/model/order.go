package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// 配送情報。出荷後に埋まる（未出荷ならすべてNULL）。
type ShippingDetail struct {
	ShippedAt          *time.Time `json:"shipped_at,omitempty"`
	ExpectedDeliveryAt *time.Time `json:"expected_delivery_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
}

// 金額サマリは注文作成時に1回だけ計算して保存する。
// total = subtotal + shipping_fee + tax - discount（作成時点で成立）。
type Order struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string         `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID         int64          `gorm:"not null;index" json:"user_id"`
	Status         OrderStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	Subtotal       int64          `gorm:"not null" json:"subtotal"`
	ShippingFee    int64          `gorm:"not null" json:"shipping_fee"`
	Tax            int64          `gorm:"not null" json:"tax"`
	Discount       int64          `gorm:"not null" json:"discount"`
	Total          int64          `gorm:"not null" json:"total"`
	Shipping       ShippingDetail `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	IdempotencyKey string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
