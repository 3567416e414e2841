package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

// DI
func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

// 支払い済み注文の売上合計
func (r *AnalyticsGormRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var revenue *int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("SUM(total)").
		Where("payment_status = ?", model.PaymentStatusPaid).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Scan(&revenue).Error

	if err != nil {
		return 0, err
	}
	if revenue == nil {
		return 0, nil
	}
	return *revenue, nil
}

func (r *AnalyticsGormRepository) CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Group("status").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *AnalyticsGormRepository) CountActiveCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ? AND is_active = ?", model.RoleUser, true).
		Count(&count).Error
	return count, err
}

// 期間内の売れ筋商品（数量順）
func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.TopProductRow, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []repo.TopProductRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, order_items.product_name_snapshot AS product_name, SUM(order_items.quantity) AS quantity_sold, SUM(order_items.line_total) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ?", model.PaymentStatusPaid).
		Where("orders.created_at >= ? AND orders.created_at <= ?", from, to).
		Group("order_items.product_id, order_items.product_name_snapshot").
		Order("quantity_sold DESC").
		Limit(limit).
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}
	return rows, nil
}
