// Package orchestrator coordinates the generation workflows: the per-variant
// agent chains, the QA feedback loop, the moderation gate, submission to the
// video provider, and the polling loop that lands the final asset.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aistudio/config"
	"aistudio/internal/apperr"
	"aistudio/internal/gateway"
	"aistudio/internal/imaging"
	"aistudio/internal/store"
	"aistudio/models"
)

// Variant selects which agent chain and thresholds apply to a video job.
type Variant string

const (
	VariantPromo   Variant = "promo"
	VariantFashion Variant = "fashion"
	VariantUGC     Variant = "ugc"
	VariantGeneral Variant = "general"
	VariantRemix   Variant = "remix"
)

// Core owns the in-flight lifecycle of generation jobs. All collaborators are
// injected; the store is the sole writer of durable records.
type Core struct {
	gen    gateway.Generator
	images gateway.ImageGenerator
	store  store.Store
	cfg    *config.Settings
	log    *logrus.Logger
	http   *http.Client
}

// New builds an orchestration core.
func New(gen gateway.Generator, images gateway.ImageGenerator, st store.Store, cfg *config.Settings, log *logrus.Logger) *Core {
	return &Core{
		gen:    gen,
		images: images,
		store:  st,
		cfg:    cfg,
		log:    log,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// VideoRequest carries one video job's inputs through the background run.
type VideoRequest struct {
	Variant     Variant
	UserContent string
	Image       []byte // resolved reference image bytes
	VoiceOver   bool
	Vibe        string
	Language    string
	Size        string // optional dimensions override
}

// InitiateVideo validates the reference image, creates the pending record,
// and returns its id plus the resolved image bytes so the background run does
// not re-fetch. No record is created when validation fails.
func (c *Core) InitiateVideo(ctx context.Context, variant Variant, userContent, refB64, refURL, userID string) (string, []byte, error) {
	var image []byte
	var err error
	switch {
	case refB64 != "":
		image, err = imaging.DecodeBase64(refB64)
		if err != nil {
			return "", nil, err
		}
	case refURL != "":
		image, err = imaging.Fetch(ctx, c.http, refURL)
		if err != nil {
			return "", nil, apperr.Validation("failed to download reference image: %v", err)
		}
	default:
		return "", nil, apperr.Validation("reference image must be provided either as base64 or URL")
	}

	fields := store.Fields{
		"title":        variantTitle(variant),
		"user_content": userContent,
		"status":       models.StatusPending,
	}
	if refURL != "" {
		fields["image_url"] = refURL
	}
	if userID != "" {
		fields["user_id"] = userID
	}

	rec, err := c.store.Insert(models.VideoAssetsTable, fields)
	if err != nil {
		return "", nil, err
	}

	id := recordID(rec)
	c.log.WithFields(logrus.Fields{"record_id": id, "variant": variant}).Info("Video generation initiated")
	return id, image, nil
}

// RunVideo executes the full background flow for one video job. Any error
// past this point is converted into a single terminal failed write; the
// method never panics out of the background worker.
func (c *Core) RunVideo(ctx context.Context, recordID string, req VideoRequest) {
	if err := c.runVideoFlow(ctx, recordID, req); err != nil {
		c.log.WithField("record_id", recordID).WithError(err).Error("Video orchestration flow failed")
		c.failJob(models.VideoAssetsTable, recordID, err)
	}
}

func (c *Core) runVideoFlow(ctx context.Context, recordID string, req VideoRequest) error {
	log := c.log.WithFields(logrus.Fields{"record_id": recordID, "variant": req.Variant})
	log.Info("Starting orchestration flow")

	var finalPrompt string
	var qaScore *int

	switch req.Variant {
	case VariantUGC:
		prompt, res, err := c.runUGCChain(ctx, req)
		if err != nil {
			return err
		}
		finalPrompt = prompt
		score := res.Score
		qaScore = &score

	case VariantGeneral:
		p := newPipelineContext(req)
		prompt, err := c.runPipeline(ctx, generalStages(), p)
		if err != nil {
			return err
		}
		finalPrompt = prompt

	case VariantPromo, VariantFashion:
		stages := promoStages()
		if req.Variant == VariantFashion {
			stages = fashionStages()
		}

		p := newPipelineContext(req)
		candidate, err := c.runPipeline(ctx, stages, p)
		if err != nil {
			return err
		}

		prompt, res, err := c.runQALoop(ctx, qaConfig{
			MaxAttempts:   3,
			PassThreshold: 80,
			RubricSystem:  qaRubricSystem(string(req.Variant)),
		}, candidate, req.UserContent)
		if err != nil {
			return err
		}
		finalPrompt = prompt
		score := res.Score
		qaScore = &score

	default:
		return apperr.Validation("unknown video variant %q", req.Variant)
	}

	finalPrompt, err := c.applyModerationGate(ctx, finalPrompt)
	if err != nil {
		return err
	}

	reference, err := imaging.Normalize(req.Image)
	if err != nil {
		return err
	}

	size := req.Size
	if size == "" {
		size = c.cfg.VideoSize
	}

	log.Info("Submitting video job")
	externalID, err := c.gen.CreateVideoJob(ctx, finalPrompt, reference, size)
	if err != nil {
		return err
	}
	log.WithField("external_id", externalID).Info("Video job created")

	c.pollAndSave(ctx, pollJob{
		RecordID:   recordID,
		ExternalID: externalID,
		Prompt:     finalPrompt,
		QAScore:    qaScore,
	})
	return nil
}

// InitiateRemix creates the pending record for a remix. videoID may be a
// record id (its reference image URL is inherited) or a raw external job id.
func (c *Core) InitiateRemix(videoID, prompt, userID string) (string, error) {
	fields := store.Fields{
		"title":        "Remixed Video",
		"user_content": prompt,
		"status":       models.StatusPending,
	}
	if userID != "" {
		fields["user_id"] = userID
	}

	if _, err := uuid.Parse(videoID); err == nil {
		if rec, ok := c.store.Get(models.VideoAssetsTable, videoID); ok {
			if url, ok := rec["image_url"].(string); ok && url != "" {
				fields["image_url"] = url
			}
		}
	} else {
		c.log.WithField("video_id", videoID).Info("Remix target is not a record id, assuming external job id")
	}

	rec, err := c.store.Insert(models.VideoAssetsTable, fields)
	if err != nil {
		return "", err
	}
	return recordID(rec), nil
}

// RunRemix executes the background remix flow: moderation hard-reject, remix
// submission, then polling with dual persistence (local cache + storage).
func (c *Core) RunRemix(ctx context.Context, recordID, originalJobID, prompt string) {
	if err := c.runRemixFlow(ctx, recordID, originalJobID, prompt); err != nil {
		c.log.WithField("record_id", recordID).WithError(err).Error("Remix flow failed")
		c.failJob(models.VideoAssetsTable, recordID, err)
	}
}

func (c *Core) runRemixFlow(ctx context.Context, recordID, originalJobID, prompt string) error {
	log := c.log.WithFields(logrus.Fields{"record_id": recordID, "original_job_id": originalJobID})
	log.Info("Starting remix flow")

	flagged, err := c.gen.CheckModeration(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("Moderation check failed, proceeding as not flagged")
	} else if flagged {
		return apperr.Moderation("remix prompt flagged by moderation")
	}

	externalID, err := c.gen.RemixVideoJob(ctx, originalJobID, prompt)
	if err != nil {
		return err
	}
	log.WithField("external_id", externalID).Info("Remix job created")

	c.pollAndSave(ctx, pollJob{
		RecordID:   recordID,
		ExternalID: externalID,
		Prompt:     prompt,
		LocalDir:   c.cfg.RemixCacheDir,
		FixedTitle: "Remixed Video",
		FilePrefix: "remix_",
	})
	return nil
}

// failJob writes the single terminal failed update for a job.
func (c *Core) failJob(table, id string, cause error) {
	_, err := c.store.Update(table, id, store.Fields{
		"status":        models.StatusFailed,
		"error_message": cause.Error(),
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"table": table, "record_id": id}).WithError(err).Error("Failed to persist terminal failure")
	}
}

// creativeTitle asks for a short display title; failures fall back to the
// provided default rather than failing the job.
func (c *Core) creativeTitle(ctx context.Context, prompt, fallback string) string {
	title, err := c.gen.GenerateText(ctx, titleSystem, prompt, nil)
	if err != nil || title == "" {
		c.log.WithError(err).Warn("Title generation failed, using default")
		return fallback
	}
	return title
}

func variantTitle(v Variant) string {
	switch v {
	case VariantPromo:
		return "Promo Video"
	case VariantFashion:
		return "Fashion Video"
	case VariantUGC:
		return "Ugc Video"
	case VariantGeneral:
		return "General Video"
	default:
		return "Generated Video"
	}
}

func recordID(rec store.Fields) string {
	return fmt.Sprintf("%v", rec["id"])
}
