package usecase

import (
	"context"
	"net/http"
	"time"

	repo "storefront/internal/repository"
)

const defaultAnalyticsWindow = 30 * 24 * time.Hour

type AnalyticsUsecase struct {
	analyticsRepo repo.AnalyticsRepository
}

// DI
func NewAnalyticsUsecase(analyticsRepo repo.AnalyticsRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{analyticsRepo: analyticsRepo}
}

type AnalyticsSummary struct {
	From            time.Time            `json:"from"`
	To              time.Time            `json:"to"`
	Revenue         int64                `json:"revenue"`
	OrdersByStatus  map[string]int64     `json:"orders_by_status"`
	ActiveCustomers int64                `json:"active_customers"`
	TopProducts     []repo.TopProductRow `json:"top_products"`
}

// Summary はダッシュボード用の集計。期間未指定なら直近30日。
func (u *AnalyticsUsecase) Summary(ctx context.Context, from, to *time.Time) (AnalyticsSummary, error) {
	end := time.Now()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultAnalyticsWindow)
	if from != nil {
		start = *from
	}
	if !start.Before(end) {
		return AnalyticsSummary{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	revenue, err := u.analyticsRepo.RevenueBetween(ctx, start, end)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byStatus, err := u.analyticsRepo.CountOrdersByStatus(ctx, start, end)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if byStatus == nil {
		byStatus = map[string]int64{}
	}

	customers, err := u.analyticsRepo.CountActiveCustomers(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	top, err := u.analyticsRepo.TopProducts(ctx, start, end, 5)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if top == nil {
		top = []repo.TopProductRow{}
	}

	return AnalyticsSummary{
		From:            start,
		To:              end,
		Revenue:         revenue,
		OrdersByStatus:  byStatus,
		ActiveCustomers: customers,
		TopProducts:     top,
	}, nil
}
