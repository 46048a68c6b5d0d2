package orchestrator

import (
	"context"
	"fmt"
	"strings"
)

// PipelineContext accumulates stage outputs for one run. It is transient;
// only the final assembled prompt outlives the run.
type PipelineContext struct {
	UserContent string
	Image       []byte
	VoiceOver   bool
	Vibe        string
	Language    string

	names     []string
	artifacts map[string]string
}

func newPipelineContext(req VideoRequest) *PipelineContext {
	return &PipelineContext{
		UserContent: req.UserContent,
		Image:       req.Image,
		VoiceOver:   req.VoiceOver,
		Vibe:        req.Vibe,
		Language:    req.Language,
		artifacts:   make(map[string]string),
	}
}

// Artifact returns a prior stage's output, or "" if the stage has not run.
func (p *PipelineContext) Artifact(name string) string {
	return p.artifacts[name]
}

func (p *PipelineContext) add(name, text string) {
	if _, exists := p.artifacts[name]; !exists {
		p.names = append(p.names, name)
	}
	p.artifacts[name] = text
}

// Joined concatenates all artifacts in stage order.
func (p *PipelineContext) Joined() string {
	parts := make([]string, 0, len(p.names))
	for _, n := range p.names {
		parts = append(parts, p.artifacts[n])
	}
	return strings.Join(parts, "\n")
}

// Stage is one prompt-refinement step. System and Input derive the call's
// prompts from the accumulated context; Vision attaches the reference image.
type Stage struct {
	Name   string
	Vision bool
	System func(p *PipelineContext) string
	Input  func(p *PipelineContext) string
}

// runPipeline executes stages sequentially, accumulating each output into the
// context. The last stage's output is the candidate prompt. A stage failure
// aborts the whole pipeline.
func (c *Core) runPipeline(ctx context.Context, stages []Stage, p *PipelineContext) (string, error) {
	var last string
	for i, s := range stages {
		var img []byte
		if s.Vision {
			img = p.Image
		}

		out, err := c.gen.GenerateText(ctx, s.System(p), s.Input(p), img)
		if err != nil {
			return "", fmt.Errorf("stage %s: %w", s.Name, err)
		}

		c.log.WithField("stage", s.Name).Infof("Pipeline stage %d/%d completed", i+1, len(stages))
		p.add(s.Name, out)
		last = out
	}
	return last, nil
}

func promoStages() []Stage {
	return []Stage{
		{
			Name:   "concept",
			Vision: true,
			System: func(*PipelineContext) string { return promoConceptSystem },
			Input:  func(p *PipelineContext) string { return p.UserContent },
		},
		{
			Name:   "visual",
			System: func(*PipelineContext) string { return promoVisualSystem },
			Input:  func(p *PipelineContext) string { return p.Artifact("concept") },
		},
		{
			Name:   "audio",
			System: func(p *PipelineContext) string { return promoAudioSystem(p.VoiceOver, p.Vibe) },
			Input:  func(p *PipelineContext) string { return p.Artifact("concept") + "\n" + p.Artifact("visual") },
		},
		{
			Name:   "assembly",
			System: func(*PipelineContext) string { return promoAssemblySystem },
			Input:  func(p *PipelineContext) string { return p.Joined() },
		},
	}
}

func fashionStages() []Stage {
	return []Stage{
		{
			Name:   "concept",
			Vision: true,
			System: func(*PipelineContext) string { return fashionConceptSystem },
			Input:  func(p *PipelineContext) string { return p.UserContent },
		},
		{
			Name:   "visual",
			System: func(*PipelineContext) string { return fashionVisualSystem },
			Input:  func(p *PipelineContext) string { return p.Artifact("concept") },
		},
		{
			Name:   "audio",
			System: func(p *PipelineContext) string { return fashionAudioSystem(p.VoiceOver, p.Vibe) },
			Input:  func(p *PipelineContext) string { return p.Artifact("concept") + "\n" + p.Artifact("visual") },
		},
		{
			Name:   "assembly",
			System: func(*PipelineContext) string { return fashionAssemblySystem },
			Input:  func(p *PipelineContext) string { return p.Joined() },
		},
	}
}

func generalStages() []Stage {
	return []Stage{
		{
			Name:   "format",
			System: func(p *PipelineContext) string { return generalFormatSystem(p.Language) },
			Input:  func(p *PipelineContext) string { return p.UserContent },
		},
	}
}
