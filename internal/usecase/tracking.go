package usecase

import (
	"time"

	"storefront/internal/domain/model"
)

// 配送状況の1チェックポイント
type TrackingCheckpoint struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Completed   bool   `json:"completed"`
}

const trackingDateFormat = "Jan 2, 2006"

// タイムラインは常にこの5段階・この順で返す
var trackingStages = []struct {
	status      string
	description string
}{
	{"ordered", "Order placed"},
	{"confirmed", "Order confirmed"},
	{"shipped", "Shipped"},
	{"out-for-delivery", "Out for delivery"},
	{"delivered", "Delivered"},
}

// 注文ステータスをタイムライン上の段階に正規化する。
// 不明値とcancelledはorderedに落とす。
func canonicalStage(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusPending:
		return "ordered"
	case model.OrderStatusConfirmed, model.OrderStatusProcessing:
		return "confirmed"
	case model.OrderStatusShipped:
		return "shipped"
	case model.OrderStatusDelivered:
		return "delivered"
	case model.OrderStatusCancelled:
		return "ordered"
	default:
		return "ordered"
	}
}

// BuildTrackingTimeline は注文から表示用のタイムラインを組み立てる。
// 現在段階までのチェックポイントをcompletedにし、日付は持っている分だけ埋める。
// 配送タイムスタンプが無い段階はcompletedでも日付が空になる（空文字で返す）。
func BuildTrackingTimeline(o model.Order) []TrackingCheckpoint {
	stage := canonicalStage(o.Status)

	stageIdx := 0
	for i, s := range trackingStages {
		if s.status == stage {
			stageIdx = i
			break
		}
	}

	timeline := make([]TrackingCheckpoint, 0, len(trackingStages))
	for i, s := range trackingStages {
		timeline = append(timeline, TrackingCheckpoint{
			Status:      s.status,
			Description: s.description,
			Date:        checkpointDate(s.status, o),
			Completed:   i <= stageIdx,
		})
	}
	return timeline
}

func checkpointDate(status string, o model.Order) string {
	switch status {
	case "ordered":
		return o.CreatedAt.Format(trackingDateFormat)
	case "confirmed":
		return o.UpdatedAt.Format(trackingDateFormat)
	case "shipped":
		return formatOptional(o.Shipping.ShippedAt)
	case "out-for-delivery":
		return formatOptional(o.Shipping.ExpectedDeliveryAt)
	case "delivered":
		return formatOptional(o.Shipping.DeliveredAt)
	default:
		return ""
	}
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(trackingDateFormat)
}
