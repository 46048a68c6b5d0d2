// Package gateway defines the narrow interfaces to external generative
// services and implements their REST clients.
package gateway

import "context"

// Remote video job states reported by the provider.
const (
	JobQueued     = "queued"
	JobInProgress = "in_progress"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// VideoJobStatus is one remote status observation.
type VideoJobStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the remote job has finished, successfully or not.
func (s VideoJobStatus) Terminal() bool {
	return s.Status == JobCompleted || s.Status == JobFailed
}

// Generator is the contract the orchestration core consumes for text, vision,
// moderation, and video job operations.
type Generator interface {
	// GenerateText runs one text-generation call. image may be nil; when set
	// the call is vision-augmented with the reference image.
	GenerateText(ctx context.Context, system, user string, image []byte) (string, error)

	// AnalyzeImage runs one vision call over an image with a single prompt.
	AnalyzeImage(ctx context.Context, prompt string, image []byte) (string, error)

	// CheckModeration reports whether text is flagged. Transport failures are
	// returned as errors; the moderation gate decides the fail-open policy.
	CheckModeration(ctx context.Context, text string) (bool, error)

	// CreateVideoJob submits a new video generation job and returns its
	// external id.
	CreateVideoJob(ctx context.Context, prompt string, referenceImage []byte, size string) (string, error)

	// RemixVideoJob edits an existing remote job with a new prompt.
	RemixVideoJob(ctx context.Context, externalID, prompt string) (string, error)

	// GetVideoJobStatus fetches the current remote status.
	GetVideoJobStatus(ctx context.Context, externalID string) (VideoJobStatus, error)

	// DownloadVideoContent fetches the raw generated asset.
	DownloadVideoContent(ctx context.Context, externalID string) ([]byte, error)
}

// ImageGenerator generates a single image from a prompt and a reference image
// URL. Implementations are provider-switchable and share this contract.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, imageURL string) (string, error)
}
