package usecase

import (
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func baseOrder(status model.OrderStatus) model.Order {
	return model.Order{
		ID:        1,
		Status:    status,
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	}
}

func completedCount(timeline []TrackingCheckpoint) int {
	n := 0
	for _, cp := range timeline {
		if cp.Completed {
			n++
		}
	}
	return n
}

func TestBuildTrackingTimeline_AlwaysFiveStagesInOrder(t *testing.T) {
	timeline := BuildTrackingTimeline(baseOrder(model.OrderStatusPending))

	assert.Len(t, timeline, 5)
	assert.Equal(t, "ordered", timeline[0].Status)
	assert.Equal(t, "confirmed", timeline[1].Status)
	assert.Equal(t, "shipped", timeline[2].Status)
	assert.Equal(t, "out-for-delivery", timeline[3].Status)
	assert.Equal(t, "delivered", timeline[4].Status)
}

func TestBuildTrackingTimeline_CompletedByStatus(t *testing.T) {
	cases := []struct {
		status    model.OrderStatus
		completed int
	}{
		{model.OrderStatusPending, 1},
		{model.OrderStatusConfirmed, 2},
		{model.OrderStatusProcessing, 2},
		{model.OrderStatusShipped, 3},
		{model.OrderStatusDelivered, 5},
		{model.OrderStatusCancelled, 1},
		{model.OrderStatus("garbage"), 1},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			timeline := BuildTrackingTimeline(baseOrder(tc.status))
			assert.Equal(t, tc.completed, completedCount(timeline))
		})
	}
}

// completedは常に先頭からの連続（歯抜けにならない）
func TestBuildTrackingTimeline_CompletedIsPrefix(t *testing.T) {
	for _, s := range []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusConfirmed,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusCancelled,
	} {
		timeline := BuildTrackingTimeline(baseOrder(s))
		seenIncomplete := false
		for _, cp := range timeline {
			if !cp.Completed {
				seenIncomplete = true
			}
			if seenIncomplete {
				assert.False(t, cp.Completed, "status=%s: completed after incomplete", s)
			}
		}
	}
}

// 出荷済みでも配送タイムスタンプが無ければ、completedのまま日付だけ空になる
func TestBuildTrackingTimeline_ShippedWithoutTimestamps(t *testing.T) {
	o := baseOrder(model.OrderStatusShipped)

	timeline := BuildTrackingTimeline(o)

	assert.True(t, timeline[2].Completed)
	assert.Equal(t, "", timeline[2].Date)
	assert.Equal(t, "", timeline[3].Date)
	assert.Equal(t, "", timeline[4].Date)
}

func TestBuildTrackingTimeline_DatesFromShippingDetail(t *testing.T) {
	o := baseOrder(model.OrderStatusDelivered)
	o.Shipping = model.ShippingDetail{
		ShippedAt:          ptrTime(time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)),
		ExpectedDeliveryAt: ptrTime(time.Date(2026, 8, 6, 9, 0, 0, 0, time.UTC)),
		DeliveredAt:        ptrTime(time.Date(2026, 8, 5, 16, 0, 0, 0, time.UTC)),
	}

	timeline := BuildTrackingTimeline(o)

	assert.Equal(t, "Aug 1, 2026", timeline[0].Date)
	assert.Equal(t, "Aug 2, 2026", timeline[1].Date)
	assert.Equal(t, "Aug 3, 2026", timeline[2].Date)
	assert.Equal(t, "Aug 6, 2026", timeline[3].Date)
	assert.Equal(t, "Aug 5, 2026", timeline[4].Date)
	assert.Equal(t, 5, completedCount(timeline))
}

// キャンセルされた注文は最初の段階だけが残る
func TestBuildTrackingTimeline_CancelledShowsOnlyOrdered(t *testing.T) {
	timeline := BuildTrackingTimeline(baseOrder(model.OrderStatusCancelled))

	assert.True(t, timeline[0].Completed)
	for _, cp := range timeline[1:] {
		assert.False(t, cp.Completed)
	}
	assert.Equal(t, "Aug 1, 2026", timeline[0].Date)
}
