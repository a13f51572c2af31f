package dispatch

import (
	"sync"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
)

type ModelStatus string

const (
	ModelLoading ModelStatus = "loading"
	ModelLoaded  ModelStatus = "loaded"
	ModelFailed  ModelStatus = "failed"
)

const (
	ThinkingMessage  = "AI is thinking…"
	AnalyzingMessage = "Analyzing the exhibit…"
)

type HUD struct {
	Backend         string             `json:"backend"`
	Model           ModelStatus        `json:"model"`
	Preds           int                `json:"preds"`
	Error           string             `json:"error,omitempty"`
	Label           string             `json:"label,omitempty"`
	BoundingBox     *model.BoundingBox `json:"boundingBox,omitempty"`
	Description     string             `json:"description,omitempty"`
	Thinking        bool               `json:"thinking"`
	ThinkingMessage string             `json:"thinkingMessage,omitempty"`
	Detections      []model.Detection  `json:"detections"`
}

// Display holds what the visitor currently sees. Auto-hide timers are kept as
// deadlines and evaluated by Snapshot, so superseding a label or description
// simply moves its deadline.
type Display struct {
	opts Options

	mu                sync.Mutex
	backend           string
	status            ModelStatus
	errMsg            string
	label             string
	box               model.BoundingBox
	labelHideAt       time.Time
	description       string
	descriptionHideAt time.Time
	thinking          bool
	thinkingSince     time.Time
	preds             []model.Detection
	predsAt           time.Time
}

func NewDisplay(opts Options) *Display {
	return &Display{
		opts:   opts,
		status: ModelLoading,
	}
}

func (d *Display) SetBackend(backend string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backend = backend
}

func (d *Display) SetModelStatus(status ModelStatus, errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	d.errMsg = errMsg
}

// ReportError records a per-frame error. The first error sticks until the
// model status is set again.
func (d *Display) ReportError(errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.errMsg == "" {
		d.errMsg = errMsg
	}
}

func (d *Display) SetPredictions(now time.Time, preds []model.Detection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preds = preds
	d.predsAt = now
}

func (d *Display) ShowLabel(now time.Time, det model.Detection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = det.Label
	d.box = det.BoundingBox
	d.labelHideAt = now.Add(d.opts.LabelHide)
}

func (d *Display) ClearLabel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = ""
	d.labelHideAt = time.Time{}
}

// ShowDescription displays a non-empty description until its hide deadline.
func (d *Display) ShowDescription(now time.Time, text string) {
	if text == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.description = text
	d.descriptionHideAt = now.Add(d.opts.DescriptionHide)
}

func (d *Display) StartThinking(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.thinking = true
	d.thinkingSince = now
}

func (d *Display) StopThinking() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.thinking = false
	d.thinkingSince = time.Time{}
}

func (d *Display) Snapshot(now time.Time) HUD {
	d.mu.Lock()
	defer d.mu.Unlock()

	hud := HUD{
		Backend:    d.backend,
		Model:      d.status,
		Preds:      len(d.preds),
		Error:      d.errMsg,
		Thinking:   d.thinking,
		Detections: []model.Detection{},
	}

	if d.label != "" && now.Before(d.labelHideAt) {
		box := d.box
		hud.Label = d.label
		hud.BoundingBox = &box
	}

	if d.description != "" && now.Before(d.descriptionHideAt) {
		hud.Description = d.description
	}

	if d.thinking {
		hud.ThinkingMessage = ThinkingMessage
		if now.Sub(d.thinkingSince) >= d.opts.ThinkingEscalation {
			hud.ThinkingMessage = AnalyzingMessage
		}
	}

	if len(d.preds) > 0 && now.Sub(d.predsAt) <= d.opts.Persist {
		n := len(d.preds)
		if d.opts.MaxDetections > 0 && n > d.opts.MaxDetections {
			n = d.opts.MaxDetections
		}
		hud.Detections = append(hud.Detections, d.preds[:n]...)
	}

	return hud
}

// Close clears everything shown. Called on teardown.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = ""
	d.description = ""
	d.thinking = false
	d.preds = nil
}
