package dispatch

import (
	"testing"

	"github.com/khaledhikmat/exhibit-guide/model"
)

func TestLabelAutoHides(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.ShowLabel(at(0), *det("Energy Story", 0.95))

	if hud := d.Snapshot(at(4999)); hud.Label != "Energy Story" || hud.BoundingBox == nil {
		t.Errorf("expected label visible before 5s, got %+v", hud)
	}
	if hud := d.Snapshot(at(5000)); hud.Label != "" || hud.BoundingBox != nil {
		t.Errorf("expected label hidden at 5s, got %+v", hud)
	}
}

func TestNewLabelSupersedesDeadline(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.ShowLabel(at(0), *det("Energy Story", 0.95))
	d.ShowLabel(at(4000), *det("Earth Alive", 0.93))

	if hud := d.Snapshot(at(8000)); hud.Label != "Earth Alive" {
		t.Errorf("expected superseding label visible, got %q", hud.Label)
	}
}

func TestClearLabel(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.ShowLabel(at(0), *det("Energy Story", 0.95))
	d.ClearLabel()

	if hud := d.Snapshot(at(1)); hud.Label != "" {
		t.Errorf("expected cleared label, got %q", hud.Label)
	}
}

func TestDescriptionAutoHides(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.ShowDescription(at(0), "A wall of spinning turbines.")

	if hud := d.Snapshot(at(9999)); hud.Description == "" {
		t.Error("expected description visible before 10s")
	}
	if hud := d.Snapshot(at(10000)); hud.Description != "" {
		t.Errorf("expected description hidden at 10s, got %q", hud.Description)
	}

	d.ShowDescription(at(20000), "")
	if hud := d.Snapshot(at(20001)); hud.Description != "" {
		t.Error("an empty description must not be shown")
	}
}

func TestThinkingEscalates(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.StartThinking(at(0))

	if hud := d.Snapshot(at(2999)); !hud.Thinking || hud.ThinkingMessage != ThinkingMessage {
		t.Errorf("expected initial thinking message, got %+v", hud)
	}
	if hud := d.Snapshot(at(3000)); hud.ThinkingMessage != AnalyzingMessage {
		t.Errorf("expected escalated message, got %q", hud.ThinkingMessage)
	}

	d.StopThinking()
	if hud := d.Snapshot(at(3001)); hud.Thinking || hud.ThinkingMessage != "" {
		t.Errorf("expected thinking stopped, got %+v", hud)
	}
}

func TestPredictionsPersistAndCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDetections = 2
	d := NewDisplay(opts)

	d.SetPredictions(at(0), []model.Detection{
		{Label: "a", Probability: 0.6},
		{Label: "b", Probability: 0.7},
		{Label: "c", Probability: 0.8},
	})

	hud := d.Snapshot(at(600))
	if hud.Preds != 3 {
		t.Errorf("expected preds count 3, got %d", hud.Preds)
	}
	if len(hud.Detections) != 2 {
		t.Errorf("expected detections capped at 2, got %d", len(hud.Detections))
	}
	if hud := d.Snapshot(at(601)); len(hud.Detections) != 0 {
		t.Errorf("expected detections expired after persist window, got %d", len(hud.Detections))
	}
}

func TestModelStatusAndErrors(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	if hud := d.Snapshot(at(0)); hud.Model != ModelLoading {
		t.Errorf("expected loading, got %v", hud.Model)
	}

	d.SetModelStatus(ModelLoaded, "")
	d.ReportError("forward: empty output")
	d.ReportError("second error")

	hud := d.Snapshot(at(0))
	if hud.Model != ModelLoaded || hud.Error != "forward: empty output" {
		t.Errorf("expected first error to stick, got %+v", hud)
	}

	d.SetModelStatus(ModelFailed, "model file missing")
	if hud := d.Snapshot(at(0)); hud.Model != ModelFailed || hud.Error != "model file missing" {
		t.Errorf("expected failed status, got %+v", hud)
	}
}

func TestClose(t *testing.T) {
	d := NewDisplay(DefaultOptions())
	d.ShowLabel(at(0), *det("Energy Story", 0.95))
	d.ShowDescription(at(0), "text")
	d.StartThinking(at(0))
	d.Close()

	hud := d.Snapshot(at(1))
	if hud.Label != "" || hud.Description != "" || hud.Thinking {
		t.Errorf("expected empty HUD after close, got %+v", hud)
	}
}
