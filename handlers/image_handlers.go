package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aistudio/internal/store"
	"aistudio/internal/worker"
	"aistudio/models"
	"aistudio/utils"
)

// RefineImageRequest defines the expected JSON structure for image refinement.
type RefineImageRequest struct {
	UserContent string `json:"user_content" validate:"required"`
	ImageURL    string `json:"image_url" validate:"required,url"`
	UserID      string `json:"user_id"`
}

// RefineImage starts an image refinement job: the prompt is rewritten by the
// refine agent, the image provider generates the result, and the asset lands
// in storage.
// POST /api/v1/image/refine
func (h *ApplicationHandler) RefineImage(c *fiber.Ctx) error {
	payload := new(RefineImageRequest)
	if ok, resp := h.bindJSON(c, payload); !ok {
		return resp
	}

	recordID, err := h.Core.InitiateImage(payload.UserContent, payload.ImageURL, normalizeOptional(payload.UserID))
	if err != nil {
		h.Logger.WithError(err).Error("Image initiation failed")
		return utils.RespondWithAppError(c, err)
	}

	userContent, imageURL := payload.UserContent, payload.ImageURL
	job := &worker.Func{JobID: recordID, Run: func() error {
		h.Core.RunImage(context.Background(), recordID, userContent, imageURL)
		return nil
	}}
	if err := h.Dispatcher.Submit(job); err != nil {
		h.rejectImageOverload(recordID)
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Generation queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"id": recordID, "status": models.StatusPending})
}

func (h *ApplicationHandler) rejectImageOverload(recordID string) {
	_, err := h.Store.Update(models.ImageAssetsTable, recordID, store.Fields{
		"status":        models.StatusFailed,
		"error_message": "server is at capacity, job was not started",
	})
	if err != nil {
		h.Logger.WithError(err).Errorf("Could not mark rejected job %s as failed", recordID)
	}
}

// GetImageStatus retrieves the current state of an image refinement job.
// GET /api/v1/image/status/:jobId
func (h *ApplicationHandler) GetImageStatus(c *fiber.Ctx) error {
	jobIDStr := c.Params("jobId")
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	rec, ok := h.Store.Get(models.ImageAssetsTable, jobID.String())
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Image job not found")
	}

	var asset models.ImageAsset
	raw, err := json.Marshal(rec)
	if err == nil {
		err = json.Unmarshal(raw, &asset)
	}
	if err != nil {
		h.Logger.WithError(err).Errorf("Could not decode image record %s", jobID)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process job data")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, asset)
}
