package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageAsset represents a row in the image_assets table.
type ImageAsset struct {
	ID           uuid.UUID `json:"id"`
	Title        *string   `json:"title,omitempty"`
	UserContent  string    `json:"user_content"`
	RefImageURL  *string   `json:"ref_image_url,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`    // stored result
	ImagePrompt  *string   `json:"image_prompt,omitempty"` // refined prompt
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"` // Nullable TEXT
	UserID       *string   `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
