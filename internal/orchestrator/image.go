package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"aistudio/internal/imaging"
	"aistudio/internal/store"
	"aistudio/models"
)

// InitiateImage creates the pending record for an image generation job.
func (c *Core) InitiateImage(userContent, refImageURL, userID string) (string, error) {
	fields := store.Fields{
		"title":         "Generated Image",
		"ref_image_url": refImageURL,
		"user_content":  userContent,
		"status":        models.StatusPending,
	}
	if userID != "" {
		fields["user_id"] = userID
	}

	rec, err := c.store.Insert(models.ImageAssetsTable, fields)
	if err != nil {
		return "", err
	}

	id := recordID(rec)
	c.log.WithField("record_id", id).Info("Image generation initiated")
	return id, nil
}

// RunImage executes the background image flow: prompt refinement, provider
// generation, storage, and the single terminal update.
func (c *Core) RunImage(ctx context.Context, recordID, userContent, imageURL string) {
	if err := c.runImageFlow(ctx, recordID, userContent, imageURL); err != nil {
		c.log.WithField("record_id", recordID).WithError(err).Error("Image orchestration flow failed")
		c.failJob(models.ImageAssetsTable, recordID, err)
	}
}

func (c *Core) runImageFlow(ctx context.Context, recordID, userContent, imageURL string) error {
	log := c.log.WithField("record_id", recordID)
	log.Info("Starting image orchestration flow")

	refined, err := c.gen.GenerateText(ctx, imageRefineSystem,
		fmt.Sprintf("User Content: %s\nReference Image: %s", userContent, imageURL), nil)
	if err != nil {
		return err
	}

	resultURL, err := c.images.GenerateImage(ctx, refined, imageURL)
	if err != nil {
		return err
	}
	log.WithField("result_url", resultURL).Info("Image generated")

	title := c.creativeTitle(ctx, refined, "Generated Image")

	data, err := imaging.Fetch(ctx, c.http, resultURL)
	if err != nil {
		return fmt.Errorf("downloading generated image: %w", err)
	}

	storageURL, err := c.store.UploadBlob(models.ImageBucket, recordID+".png", data, "image/png")
	if err != nil {
		return err
	}

	_, err = c.store.Update(models.ImageAssetsTable, recordID, store.Fields{
		"status":       models.StatusCompleted,
		"image_url":    storageURL,
		"image_prompt": refined,
		"title":        title,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"storage_url": storageURL}).Info("Image workflow finished successfully")
	return nil
}
