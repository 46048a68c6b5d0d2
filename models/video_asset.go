package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status values persisted in the status column.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Table names in Supabase.
const (
	VideoAssetsTable = "video_assets"
	ImageAssetsTable = "image_assets"
)

// Storage buckets.
const (
	VideoBucket = "ai_videos"
	ImageBucket = "ai_images"
)

// VideoAsset represents a row in the video_assets table.
type VideoAsset struct {
	ID           uuid.UUID `json:"id"`
	Title        *string   `json:"title,omitempty"`
	UserContent  string    `json:"user_content"`
	ImageURL     *string   `json:"image_url,omitempty"`    // reference image
	VideoURL     *string   `json:"video_url,omitempty"`    // stored result
	VideoPrompt  *string   `json:"video_prompt,omitempty"` // final submitted prompt
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"` // Nullable TEXT
	QAScore      *float64  `json:"qa_score,omitempty"`      // Nullable FLOAT
	UserID       *string   `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
