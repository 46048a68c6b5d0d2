package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestModerationGatePassesCleanPrompt(t *testing.T) {
	gen := &genMock{}
	core := testCore(t, gen, newMemStore())

	out, err := core.applyModerationGate(context.Background(), "a calm product shot")
	if err != nil {
		t.Fatalf("applyModerationGate returned error: %v", err)
	}
	if out != "a calm product shot" {
		t.Errorf("prompt = %q, want it unchanged", out)
	}
	if gen.moderationCalls != 1 {
		t.Errorf("moderation calls = %d, want 1", gen.moderationCalls)
	}
}

// A flagged prompt gets exactly one sanitization rewrite, used without a
// second moderation check.
func TestModerationGateSanitizesOnceWithoutRecheck(t *testing.T) {
	gen := &genMock{
		moderationFlagged: true,
		textFn: func(system, _ string, _ []byte) (string, error) {
			if strings.Contains(system, "safe for work") {
				return "sanitized prompt", nil
			}
			return "other", nil
		},
	}
	core := testCore(t, gen, newMemStore())

	out, err := core.applyModerationGate(context.Background(), "risky prompt")
	if err != nil {
		t.Fatalf("applyModerationGate returned error: %v", err)
	}
	if out != "sanitized prompt" {
		t.Errorf("prompt = %q, want the sanitized rewrite", out)
	}
	if gen.moderationCalls != 1 {
		t.Errorf("moderation calls = %d, want 1 (no recheck)", gen.moderationCalls)
	}
	if n := gen.countSystems("safe for work"); n != 1 {
		t.Errorf("sanitize calls = %d, want 1", n)
	}
}

// Transport failures on the moderation endpoint do not block generation.
func TestModerationGateFailsOpen(t *testing.T) {
	gen := &genMock{moderationErr: errors.New("moderation endpoint down")}
	core := testCore(t, gen, newMemStore())

	out, err := core.applyModerationGate(context.Background(), "some prompt")
	if err != nil {
		t.Fatalf("applyModerationGate returned error: %v", err)
	}
	if out != "some prompt" {
		t.Errorf("prompt = %q, want it unchanged", out)
	}
	if n := gen.countSystems("safe for work"); n != 0 {
		t.Errorf("sanitize calls = %d, want 0", n)
	}
}

func TestModerationGateSanitizeFailureIsFatal(t *testing.T) {
	gen := &genMock{
		moderationFlagged: true,
		textFn: func(system, _ string, _ []byte) (string, error) {
			if strings.Contains(system, "safe for work") {
				return "", errors.New("sanitize call failed")
			}
			return "other", nil
		},
	}
	core := testCore(t, gen, newMemStore())

	if _, err := core.applyModerationGate(context.Background(), "risky prompt"); err == nil {
		t.Fatal("expected error when sanitization of a flagged prompt fails")
	}
}
