package dto

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// NotificationResponse one in-app notification.
type NotificationResponse struct {
	ID          string                      `json:"id"`
	Category    domain.NotificationCategory `json:"category"`
	Title       string                      `json:"title"`
	Message     string                      `json:"message"`
	AmendmentID *string                     `json:"amendment_id"`
	DefectID    *string                     `json:"defect_id"`
	Read        bool                        `json:"is_read"`
	ReadAt      *time.Time                  `json:"read_at"`
	EmailSent   bool                        `json:"email_sent"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// UnreadCountResponse unread tally.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many rows flipped.
type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}
