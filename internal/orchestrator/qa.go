package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"aistudio/internal/jsonx"
)

// QAResult is one scoring observation over a candidate prompt. It is never
// persisted as a record; only the numeric score may end up on the job.
type QAResult struct {
	Approved   bool     `json:"approved"`
	Score      int      `json:"score"`
	Violations []string `json:"violations"`
	Summary    string   `json:"qa_summary"`
}

type qaConfig struct {
	MaxAttempts   int
	PassThreshold int
	// FixFinalAttempt corrects the candidate once after the last failed
	// scoring attempt. The corrected candidate is returned without being
	// re-scored, so the returned QAResult describes the pre-correction
	// candidate. The single-attempt UGC loop relies on this.
	FixFinalAttempt bool
	RubricSystem    string
}

// runQALoop iteratively scores and corrects a candidate prompt. It returns
// the final candidate together with the last scoring result obtained.
func (c *Core) runQALoop(ctx context.Context, cfg qaConfig, candidate, userContent string) (string, QAResult, error) {
	current := candidate
	var res QAResult

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		c.log.Infof("Running QA check (attempt %d/%d)", attempt, cfg.MaxAttempts)

		raw, err := c.gen.GenerateText(ctx, cfg.RubricSystem,
			fmt.Sprintf("Prompt: %s\nUser Content: %s", current, userContent), nil)
		if err != nil {
			return "", QAResult{}, fmt.Errorf("qa scoring: %w", err)
		}
		if err := jsonx.Decode(raw, &res); err != nil {
			return "", QAResult{}, fmt.Errorf("qa scoring: %w", err)
		}

		c.log.WithField("score", res.Score).Info("QA score received")
		if res.Score >= cfg.PassThreshold {
			return current, res, nil
		}

		if attempt < cfg.MaxAttempts {
			fixed, err := c.correctCandidate(ctx, current, res)
			if err != nil {
				return "", QAResult{}, err
			}
			current = fixed
			continue
		}

		if cfg.FixFinalAttempt {
			fixed, err := c.correctCandidate(ctx, current, res)
			if err != nil {
				return "", QAResult{}, err
			}
			current = fixed
		}
	}

	c.log.WithField("score", res.Score).Warnf("QA loop exhausted after %d attempts", cfg.MaxAttempts)
	return current, res, nil
}

func (c *Core) correctCandidate(ctx context.Context, current string, res QAResult) (string, error) {
	violations, err := json.Marshal(res.Violations)
	if err != nil {
		violations = []byte("[]")
	}
	c.log.WithField("violations", string(violations)).Info("QA failed, applying correction")

	fixed, err := c.gen.GenerateText(ctx, qaFixSystem(string(violations)), current, nil)
	if err != nil {
		return "", fmt.Errorf("qa correction: %w", err)
	}
	return fixed, nil
}
