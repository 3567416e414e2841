package repository

import (
	"context"
	"time"
)

// 売れ筋商品の集計行
type TopProductRow struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	Revenue      int64  `json:"revenue"`
}

// 管理ダッシュボード用の集計
type AnalyticsRepository interface {
	// 支払い済み注文の売上合計
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)
	// ステータス別の注文数
	CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error)
	CountActiveCustomers(ctx context.Context) (int64, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductRow, error)
}
