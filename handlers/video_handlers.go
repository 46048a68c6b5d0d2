package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aistudio/internal/orchestrator"
	"aistudio/internal/store"
	"aistudio/internal/worker"
	"aistudio/models"
	"aistudio/utils"
)

var validate = validator.New()

// GenerateVideoRequest defines the expected JSON structure for the video
// generation endpoints. image_base64 and image_url are alternatives; exactly
// one must carry a usable value.
type GenerateVideoRequest struct {
	UserContent string `json:"user_content" validate:"required"`
	ImageBase64 string `json:"image_base64"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	UserID      string `json:"user_id"`
}

// GenerateUGCVideoRequest adds the UGC-specific knobs.
type GenerateUGCVideoRequest struct {
	GenerateVideoRequest
	VoiceOver bool   `json:"voice_over"`
	Vibe      string `json:"vibe"`
}

// GenerateGeneralVideoRequest adds free-form dimensions and output language.
type GenerateGeneralVideoRequest struct {
	GenerateVideoRequest
	Dimensions string `json:"dimensions"`
	Language   string `json:"language"`
}

// RemixVideoRequest targets an existing video (record id or provider job id)
// with a new prompt.
type RemixVideoRequest struct {
	VideoID string `json:"video_id" validate:"required"`
	Prompt  string `json:"prompt" validate:"required"`
	UserID  string `json:"user_id"`
}

// normalizeOptional treats empty strings and the literal "string" (the Swagger
// UI placeholder clients keep sending) as unset.
func normalizeOptional(v string) string {
	if v == "" || v == "string" {
		return ""
	}
	return v
}

// bindJSON parses and validates the request body. On failure it writes the
// error response itself and reports that the handler must stop.
func (h *ApplicationHandler) bindJSON(c *fiber.Ctx, payload interface{}) (bool, error) {
	if err := c.BodyParser(payload); err != nil {
		h.Logger.WithError(err).Error("Error parsing request body")
		return false, utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		h.Logger.WithError(err).Error("Request validation failed")
		return false, utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}
	return true, nil
}

// startVideoJob creates the pending record and hands the flow to the worker
// pool. The background run gets its own context so it outlives the request.
func (h *ApplicationHandler) startVideoJob(c *fiber.Ctx, base GenerateVideoRequest, req orchestrator.VideoRequest) error {
	refB64 := normalizeOptional(base.ImageBase64)
	refURL := normalizeOptional(base.ImageURL)

	recordID, image, err := h.Core.InitiateVideo(context.Background(), req.Variant, base.UserContent, refB64, refURL, normalizeOptional(base.UserID))
	if err != nil {
		h.Logger.WithError(err).Error("Video initiation failed")
		return utils.RespondWithAppError(c, err)
	}
	req.UserContent = base.UserContent
	req.Image = image

	job := &worker.Func{JobID: recordID, Run: func() error {
		h.Core.RunVideo(context.Background(), recordID, req)
		return nil
	}}
	if err := h.Dispatcher.Submit(job); err != nil {
		h.rejectOverload(recordID)
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Generation queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"id": recordID, "status": models.StatusPending})
}

// rejectOverload marks a record failed when the worker pool cannot accept its
// job, so no row is left pending forever.
func (h *ApplicationHandler) rejectOverload(recordID string) {
	_, err := h.Store.Update(models.VideoAssetsTable, recordID, store.Fields{
		"status":        models.StatusFailed,
		"error_message": "server is at capacity, job was not started",
	})
	if err != nil {
		h.Logger.WithError(err).Errorf("Could not mark rejected job %s as failed", recordID)
	}
}

// GeneratePromoVideo starts a luxurious product promo generation.
// POST /api/v1/video/generate-promo-video
func (h *ApplicationHandler) GeneratePromoVideo(c *fiber.Ctx) error {
	payload := new(GenerateVideoRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}
	return h.startVideoJob(c, *payload, orchestrator.VideoRequest{
		Variant: orchestrator.VariantPromo,
		Vibe:    "luxurious",
	})
}

// GenerateFashionVideo starts a fashion showcase generation.
// POST /api/v1/video/generate-fashion-video
func (h *ApplicationHandler) GenerateFashionVideo(c *fiber.Ctx) error {
	payload := new(GenerateVideoRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}
	return h.startVideoJob(c, *payload, orchestrator.VideoRequest{
		Variant: orchestrator.VariantFashion,
		Vibe:    "stylish",
	})
}

// GenerateUGCVideo starts a UGC-style creator testimonial generation.
// POST /api/v1/video/generate-ugc-video
func (h *ApplicationHandler) GenerateUGCVideo(c *fiber.Ctx) error {
	payload := new(GenerateUGCVideoRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}
	vibe := normalizeOptional(payload.Vibe)
	if vibe == "" {
		vibe = "natural"
	}
	return h.startVideoJob(c, payload.GenerateVideoRequest, orchestrator.VideoRequest{
		Variant:   orchestrator.VariantUGC,
		VoiceOver: payload.VoiceOver,
		Vibe:      vibe,
	})
}

// GenerateGeneralVideo starts a free-form generation with optional dimensions
// and output language.
// POST /api/v1/video/generate-general-video
func (h *ApplicationHandler) GenerateGeneralVideo(c *fiber.Ctx) error {
	payload := new(GenerateGeneralVideoRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}
	return h.startVideoJob(c, payload.GenerateVideoRequest, orchestrator.VideoRequest{
		Variant:  orchestrator.VariantGeneral,
		Language: normalizeOptional(payload.Language),
		Size:     normalizeOptional(payload.Dimensions),
	})
}

// RemixVideo starts a remix of an existing video under a new prompt.
// POST /api/v1/video/remix
func (h *ApplicationHandler) RemixVideo(c *fiber.Ctx) error {
	payload := new(RemixVideoRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}

	recordID, err := h.Core.InitiateRemix(payload.VideoID, payload.Prompt, normalizeOptional(payload.UserID))
	if err != nil {
		h.Logger.WithError(err).Error("Remix initiation failed")
		return utils.RespondWithAppError(c, err)
	}

	videoID, prompt := payload.VideoID, payload.Prompt
	job := &worker.Func{JobID: recordID, Run: func() error {
		h.Core.RunRemix(context.Background(), recordID, videoID, prompt)
		return nil
	}}
	if err := h.Dispatcher.Submit(job); err != nil {
		h.rejectOverload(recordID)
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Generation queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"id": recordID, "status": models.StatusPending})
}

// GetVideoStatus retrieves the current state of a video generation job.
// GET /api/v1/video/status/:jobId
func (h *ApplicationHandler) GetVideoStatus(c *fiber.Ctx) error {
	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	rec, ok := h.Store.Get(models.VideoAssetsTable, jobID.String())
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Video job not found")
	}

	var asset models.VideoAsset
	raw, err := json.Marshal(rec)
	if err == nil {
		err = json.Unmarshal(raw, &asset)
	}
	if err != nil {
		h.Logger.WithError(err).Errorf("Could not decode video record %s", jobID)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process job data")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, asset)
}

// DownloadVideo serves a locally cached remix file. Only remixed videos keep a
// local copy; everything else lives in storage and is served by its public URL.
// GET /api/v1/video/download/:jobId
func (h *ApplicationHandler) DownloadVideo(c *fiber.Ctx) error {
	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	path := filepath.Join(h.Cfg.RemixCacheDir, jobID.String()+".mp4")
	if _, err := os.Stat(path); err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "No local copy for this video")
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.mp4"`, jobID))
	return c.SendFile(path)
}
