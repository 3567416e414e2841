package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID      *int64         `gorm:"index" json:"category_id,omitempty"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Price           int64          `gorm:"not null" json:"price"`
	DiscountPercent int64          `gorm:"not null;default:0" json:"discount_percent"`
	Stock           int64          `gorm:"not null" json:"stock"`
	IsActive        bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// 割引適用後の販売価格
func (p Product) EffectivePrice() int64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	return p.Price - p.Price*p.DiscountPercent/100
}
