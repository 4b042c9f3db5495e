package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

func TestTrace_Hooks(t *testing.T) {
	var buf bytes.Buffer
	trace := NewTrace(&buf)
	hooks := trace.Hooks()
	ctx := context.Background()

	hooks.OnTrigger(ctx, &domain.TriggerEvent{Accepted: true, Mode: domain.ModeTill})
	hooks.OnTrigger(ctx, &domain.TriggerEvent{Reason: "unauthorized_sender"})
	hooks.OnStep(ctx, &domain.StepEvent{StepID: domain.StepTillMenu, Next: domain.StepTillSubmenu, Advanced: true})
	hooks.OnStep(ctx, &domain.StepEvent{StepID: domain.StepConfirm})
	hooks.OnFinish(ctx, &domain.FinishEvent{StepID: domain.StepConfirm, Reason: domain.FinishCompleted})
	trace.Note("opened %s", "*334#")

	out := buf.String()
	for _, want := range []string{
		"accepted TILL",
		"rejected: unauthorized_sender",
		"TILL_6 -> TILL_2",
		"CONFIRM_1 (no target)",
		"completed at CONFIRM_1",
		"opened *334#",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no escape sequences when writing to a buffer")
	}
}

func TestWriteMarkdown_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, "# Title\n"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "# Title\n" {
		t.Errorf("expected verbatim markdown, got %q", buf.String())
	}
	if IsTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	if !strings.Contains(buf.String(), "version 1.2.3") {
		t.Errorf("banner missing version:\n%s", buf.String())
	}
}
