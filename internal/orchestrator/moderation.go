package orchestrator

import (
	"context"
	"fmt"
)

// applyModerationGate runs a single moderation check over the candidate
// prompt. A flagged prompt gets exactly one sanitization rewrite whose output
// is used unconditionally; the sanitized text is not re-checked. Check
// transport failures are treated as not-flagged.
func (c *Core) applyModerationGate(ctx context.Context, prompt string) (string, error) {
	flagged, err := c.gen.CheckModeration(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("Moderation check failed, proceeding as not flagged")
		return prompt, nil
	}
	if !flagged {
		c.log.Info("Moderation check passed")
		return prompt, nil
	}

	c.log.Warn("Prompt flagged by moderation, sanitizing")
	sanitized, err := c.gen.GenerateText(ctx, sanitizeSystem, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("sanitizing flagged prompt: %w", err)
	}
	return sanitized, nil
}
