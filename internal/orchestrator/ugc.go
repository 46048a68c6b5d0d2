package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"aistudio/internal/jsonx"
)

// runUGCChain is the consolidated UGC flow: vision product analysis with one
// audited self-correction, a realism check, a single master-agent call, and
// the single-attempt QA loop.
func (c *Core) runUGCChain(ctx context.Context, req VideoRequest) (string, QAResult, error) {
	c.log.Info("Running product analysis")
	product, err := c.analyzeProduct(ctx, req.Image, "")
	if err != nil {
		return "", QAResult{}, err
	}

	approved, feedback, err := c.auditProductAnalysis(ctx, req.Image, product)
	if err != nil {
		return "", QAResult{}, err
	}
	if !approved {
		c.log.WithField("feedback", feedback).Warn("Product analysis audit flagged issues, re-analyzing")
		product, err = c.analyzeProduct(ctx, req.Image, feedback)
		if err != nil {
			return "", QAResult{}, err
		}
	}

	guidelines := c.realismCheck(ctx, req.Image)

	productJSON, err := json.Marshal(product)
	if err != nil {
		productJSON = []byte("{}")
	}
	visualDescription, _ := product["visual_description"].(string)

	c.log.Info("Running UGC master agent")
	candidate, err := c.gen.GenerateText(ctx,
		ugcMasterSystem(req.UserContent, req.VoiceOver, string(productJSON), guidelines, visualDescription),
		req.UserContent, nil)
	if err != nil {
		return "", QAResult{}, fmt.Errorf("ugc master agent: %w", err)
	}

	return c.runQALoop(ctx, qaConfig{
		MaxAttempts:     1,
		PassThreshold:   85,
		FixFinalAttempt: true,
		RubricSystem:    ugcQARubricSystem(req.VoiceOver),
	}, candidate, req.UserContent)
}

// analyzeProduct extracts structured product details from the reference
// image, optionally applying audit feedback from a prior pass.
func (c *Core) analyzeProduct(ctx context.Context, image []byte, feedback string) (map[string]interface{}, error) {
	raw, err := c.gen.AnalyzeImage(ctx, ugcAnalysisPrompt(feedback), image)
	if err != nil {
		return nil, fmt.Errorf("product analysis: %w", err)
	}

	var product map[string]interface{}
	if err := jsonx.Decode(raw, &product); err != nil {
		return nil, fmt.Errorf("product analysis: %w", err)
	}
	return product, nil
}

// auditProductAnalysis validates the factual accuracy of the extracted
// product data against the image.
func (c *Core) auditProductAnalysis(ctx context.Context, image []byte, product map[string]interface{}) (bool, string, error) {
	productJSON, err := json.MarshalIndent(product, "", "  ")
	if err != nil {
		productJSON = []byte("{}")
	}

	raw, err := c.gen.AnalyzeImage(ctx, ugcAnalysisAuditPrompt(string(productJSON)), image)
	if err != nil {
		return false, "", fmt.Errorf("product analysis audit: %w", err)
	}

	var audit struct {
		Approved bool   `json:"approved"`
		Feedback string `json:"feedback"`
	}
	if err := jsonx.Decode(raw, &audit); err != nil {
		return false, "", fmt.Errorf("product analysis audit: %w", err)
	}
	return audit.Approved, audit.Feedback, nil
}

// realismCheck inspects the reference image for AI-generation artifacts. The
// check is best effort: any failure falls back to the default grounding text.
func (c *Core) realismCheck(ctx context.Context, image []byte) string {
	raw, err := c.gen.AnalyzeImage(ctx, realismDetectionPrompt, image)
	if err != nil {
		c.log.WithError(err).Warn("Realism detection failed, using default grounding")
		return realismGuidelines
	}

	var detection struct {
		IsAIGenerated bool    `json:"is_ai_generated"`
		Confidence    float64 `json:"confidence"`
	}
	if err := jsonx.Decode(raw, &detection); err != nil {
		c.log.WithError(err).Warn("Realism detection response unparseable, using default grounding")
		return realismGuidelines
	}

	if detection.IsAIGenerated && detection.Confidence > 0.8 {
		c.log.WithField("confidence", detection.Confidence).Warn("Reference image flagged as AI-generated, enforcing strict realism grounding")
	}
	return realismGuidelines
}
