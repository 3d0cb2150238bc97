package notify

import (
	"encoding/json"
	"fmt"

	"github.com/leonardo-io/leonardo/internal/models"
)

var detectionLabels = map[string]string{
	"bear":    "熊",
	"human":   "人",
	"vehicle": "車両",
}

// DetectionLabel returns the display label of a detection category.
func DetectionLabel(category string) string {
	if label, ok := detectionLabels[category]; ok {
		return label
	}
	return category
}

type DetectionPayload struct {
	DeviceID   string  `json:"device_id"`
	Category   string  `json:"detection_type"`
	Confidence float64 `json:"confidence"`
}

type MismatchPayload struct {
	DeviceID   string   `json:"device_id"`
	Region     string   `json:"region"`
	DistanceKm *float64 `json:"distance_km"`
}

type Message struct {
	DeviceID string
	Kind     models.NotificationKind
	Subject  string
	Body     string
}

// Render builds the owner facing message for a stored intent.
func Render(kind models.NotificationKind, payload string) (Message, error) {
	switch kind {
	case models.NotificationKindDetection:
		var p DetectionPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Message{}, fmt.Errorf("invalid detection payload: %w", err)
		}
		label := DetectionLabel(p.Category)
		return Message{
			Subject: fmt.Sprintf("【Leonardo Jr.】%sを検知しました", label),
			Body: fmt.Sprintf("\n【Leonardo Jr. 検知アラート】\nデバイス: %s\n検知対象: %s\n信頼度: %.1f%%",
				p.DeviceID, label, p.Confidence*100),
		}, nil

	case models.NotificationKindLocationMismatch:
		var p MismatchPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Message{}, fmt.Errorf("invalid location mismatch payload: %w", err)
		}
		distance := "不明"
		if p.DistanceKm != nil {
			distance = fmt.Sprintf("%.0fkm", *p.DistanceKm)
		}
		region := p.Region
		if region == "" {
			region = "不明"
		}
		return Message{
			Subject: "【Leonardo Jr.】位置逸脱を検知しました",
			Body: fmt.Sprintf("\n【Leonardo Jr. 位置逸脱アラート】\nデバイス: %s\n発報地域: %s\n登録座標との距離: %s\n※ デバイスが設置場所から大きく離れた場所から通信しています。",
				p.DeviceID, region, distance),
		}, nil
	}
	return Message{}, fmt.Errorf("unknown notification kind: %q", kind)
}
