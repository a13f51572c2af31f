package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
)

var t0 = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func det(label string, p float64) *model.Detection {
	return &model.Detection{
		Label:       label,
		Probability: p,
		BoundingBox: model.BoundingBox{Left: 0.4, Top: 0.4, Width: 0.2, Height: 0.2},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		p    float64
		want Band
	}{
		{0.1, BandNone},
		{0.4999, BandNone},
		{0.5, BandGray},
		{0.89, BandGray},
		{0.9, BandStrong},
		{1, BandStrong},
	}

	for _, tt := range tests {
		if got := Classify(tt.p, 0.5, 0.9); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestStrongBandEmitThrottle(t *testing.T) {
	d := NewDispatcher(DefaultOptions())
	center := model.Point{X: 320, Y: 240}

	steps := []struct {
		ms   int
		want Action
	}{
		{0, ActionConfirm},
		{3000, ActionSuppress},
		{9999, ActionSuppress},
		{11000, ActionConfirm},
		{12000, ActionSuppress},
	}

	for _, s := range steps {
		dec := d.Decide(at(s.ms), det("Energy Story", 0.95), center)
		if dec.Band != BandStrong {
			t.Fatalf("t=%d: expected strong band, got %v", s.ms, dec.Band)
		}
		if dec.Action != s.want {
			t.Errorf("t=%d: expected %v, got %v", s.ms, s.want, dec.Action)
		}
	}
}

func TestStrongBandThrottleIsPerLabel(t *testing.T) {
	d := NewDispatcher(DefaultOptions())

	if dec := d.Decide(at(0), det("Energy Story", 0.95), model.Point{}); dec.Action != ActionConfirm {
		t.Fatalf("expected confirm, got %v", dec.Action)
	}
	if dec := d.Decide(at(100), det("Earth Alive", 0.97), model.Point{}); dec.Action != ActionConfirm {
		t.Errorf("expected a different label to confirm independently, got %v", dec.Action)
	}
}

func TestRepeatedStrongWithinIntervalEmitsOnce(t *testing.T) {
	d := NewDispatcher(DefaultOptions())

	confirms := 0
	for ms := 0; ms < 10000; ms += 33 {
		if d.Decide(at(ms), det("Going Viral", 0.99), model.Point{}).Action == ActionConfirm {
			confirms++
		}
	}

	if confirms != 1 {
		t.Errorf("expected exactly one confirm, got %d", confirms)
	}
}

func TestNoneBandClears(t *testing.T) {
	d := NewDispatcher(DefaultOptions())

	if dec := d.Decide(at(0), nil, model.Point{}); dec.Action != ActionClear || dec.Band != BandNone {
		t.Errorf("expected clear for no detection, got %+v", dec)
	}
	if dec := d.Decide(at(0), det("Energy Story", 0.2), model.Point{}); dec.Action != ActionClear {
		t.Errorf("expected clear for low probability, got %v", dec.Action)
	}
}

func TestGrayBandNeverOverlapsInFlight(t *testing.T) {
	d := NewDispatcher(DefaultOptions())
	center := model.Point{X: 100, Y: 100}

	if dec := d.Decide(at(0), det("Energy Story", 0.6), center); dec.Action != ActionDescribe {
		t.Fatalf("expected describe, got %v", dec.Action)
	}

	// far beyond the interval and with a moved camera, but still in flight
	moved := model.Point{X: 500, Y: 400}
	for _, ms := range []int{100, 6000, 20000} {
		if dec := d.Decide(at(ms), det("Energy Story", 0.6), moved); dec.Action != ActionSkip {
			t.Errorf("t=%d: expected skip while in flight, got %v", ms, dec.Action)
		}
	}

	d.Complete("", errors.New("timeout"))
	if d.InFlight() {
		t.Fatal("expected in-flight cleared after completion")
	}
	if dec := d.Decide(at(21000), det("Energy Story", 0.6), moved); dec.Action != ActionDescribe {
		t.Errorf("expected a new describe after completion, got %v", dec.Action)
	}
}

func TestGrayBandCacheReuse(t *testing.T) {
	opts := DefaultOptions()
	center := model.Point{X: 100, Y: 100}

	tests := []struct {
		name   string
		ms     int
		center model.Point
		want   Action
	}{
		{name: "still and fresh", ms: 2000, center: model.Point{X: 110, Y: 110}, want: ActionReuse},
		{name: "moved within interval", ms: 2000, center: model.Point{X: 200, Y: 100}, want: ActionSkip},
		{name: "moved after interval", ms: 6000, center: model.Point{X: 200, Y: 100}, want: ActionDescribe},
		{name: "still but stale", ms: 16000, center: center, want: ActionDescribe},
		{name: "still at boundary of threshold", ms: 6000, center: model.Point{X: 140, Y: 100}, want: ActionReuse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(opts)
			if dec := d.Decide(at(0), det("Earth Alive", 0.7), center); dec.Action != ActionDescribe {
				t.Fatalf("expected describe, got %v", dec.Action)
			}
			d.Complete("A planet model with volcanoes", nil)

			dec := d.Decide(at(tt.ms), det("Earth Alive", 0.7), tt.center)
			if dec.Action != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, dec.Action)
			}
			if tt.want == ActionReuse && dec.Cached != "A planet model with volcanoes" {
				t.Errorf("expected cached description, got %q", dec.Cached)
			}
		})
	}
}

func TestFailedRequestKeepsCache(t *testing.T) {
	d := NewDispatcher(DefaultOptions())
	center := model.Point{X: 100, Y: 100}

	d.Decide(at(0), det("Earth Alive", 0.7), center)
	d.Complete("first", nil)

	// stale cache forces a new request that fails
	if dec := d.Decide(at(16000), det("Earth Alive", 0.7), center); dec.Action != ActionDescribe {
		t.Fatalf("expected describe, got %v", dec.Action)
	}
	d.Complete("", errors.New("VLM Error HTTP 500"))

	if dec := d.Decide(at(17000), det("Earth Alive", 0.7), center); dec.Action != ActionReuse || dec.Cached != "first" {
		t.Errorf("expected reuse of the earlier result, got %+v", dec)
	}
}

func TestManualRespectsOnlyInFlight(t *testing.T) {
	d := NewDispatcher(DefaultOptions())

	if !d.BeginManual(at(0)) {
		t.Fatal("expected manual request to start")
	}
	if d.BeginManual(at(100)) {
		t.Error("expected manual request to be refused while in flight")
	}
	if dec := d.Decide(at(200), det("Energy Story", 0.6), model.Point{}); dec.Action != ActionSkip {
		t.Errorf("expected gray band to skip while manual in flight, got %v", dec.Action)
	}

	d.Complete("manual", nil)
	if !d.BeginManual(at(300)) {
		t.Error("expected manual request to bypass the interval throttle")
	}
}

func TestManualResultIsNotReusedForGrayBand(t *testing.T) {
	d := NewDispatcher(DefaultOptions())

	d.BeginManual(at(0))
	d.Complete("manual", nil)

	// the manual request has no look point, so any center counts as moved
	dec := d.Decide(at(1000), det("Energy Story", 0.6), model.Point{X: 1, Y: 1})
	if dec.Action != ActionSkip {
		t.Errorf("expected skip inside the interval, got %v", dec.Action)
	}
}

func TestReset(t *testing.T) {
	d := NewDispatcher(DefaultOptions())
	d.Decide(at(0), det("Energy Story", 0.95), model.Point{})
	d.Decide(at(0), det("Earth Alive", 0.6), model.Point{})
	d.Reset()

	if d.InFlight() {
		t.Error("expected nothing in flight after reset")
	}
	if dec := d.Decide(at(10), det("Energy Story", 0.95), model.Point{}); dec.Action != ActionConfirm {
		t.Errorf("expected confirm after reset, got %v", dec.Action)
	}
}
