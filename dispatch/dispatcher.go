package dispatch

import (
	"sync"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
)

type Action int

const (
	// ActionNone is returned for an idle tick with nothing to do.
	ActionNone Action = iota
	ActionConfirm
	ActionSuppress
	ActionDescribe
	ActionReuse
	ActionSkip
	ActionClear
)

func (a Action) String() string {
	switch a {
	case ActionConfirm:
		return "confirm"
	case ActionSuppress:
		return "suppress"
	case ActionDescribe:
		return "describe"
	case ActionReuse:
		return "reuse"
	case ActionSkip:
		return "skip"
	case ActionClear:
		return "clear"
	default:
		return "none"
	}
}

type Decision struct {
	Band      Band
	Action    Action
	Detection model.Detection
	Center    model.Point
	// Cached holds the description being reused when Action is ActionReuse.
	Cached string
}

type vlmState struct {
	lastCall   time.Time
	inFlight   bool
	hasResult  bool
	lastResult string
	lastCenter *model.Point
}

// Dispatcher turns the top detection of each tick into a single decision.
// It owns the emit throttle and the description cache. All methods are safe
// for concurrent use: the description request completes on another goroutine.
type Dispatcher struct {
	opts Options

	mu       sync.Mutex
	lastEmit map[string]time.Time
	vlm      vlmState
}

func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		opts:     opts,
		lastEmit: map[string]time.Time{},
	}
}

func (d *Dispatcher) Options() Options {
	return d.opts
}

// Decide classifies det (nil when the tick produced nothing) and applies the
// band's rules. A Describe decision marks the description request in flight;
// the caller must report the outcome through Complete.
func (d *Dispatcher) Decide(now time.Time, det *model.Detection, center model.Point) Decision {
	if det == nil {
		return Decision{Band: BandNone, Action: ActionClear}
	}

	dec := Decision{
		Band:      Classify(det.Probability, d.opts.Threshold, d.opts.DispatchThreshold),
		Detection: *det,
		Center:    center,
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch dec.Band {
	case BandStrong:
		last, emitted := d.lastEmit[det.Label]
		if emitted && now.Sub(last) < d.opts.MinDispatchInterval {
			dec.Action = ActionSuppress
			return dec
		}
		d.lastEmit[det.Label] = now
		dec.Action = ActionConfirm

	case BandGray:
		v := &d.vlm
		if v.hasResult &&
			now.Sub(v.lastCall) < d.opts.MaxCacheAge &&
			!d.moved(v.lastCenter, &center) {
			dec.Action = ActionReuse
			dec.Cached = v.lastResult
			return dec
		}

		if v.inFlight || now.Sub(v.lastCall) < d.opts.MinVlmInterval {
			dec.Action = ActionSkip
			return dec
		}

		d.begin(now, &center)
		dec.Action = ActionDescribe

	default:
		dec.Action = ActionClear
	}

	return dec
}

// BeginManual starts a user-requested description. It ignores the cache and
// the interval throttle but never overlaps a request already in flight.
func (d *Dispatcher) BeginManual(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vlm.inFlight {
		return false
	}

	d.begin(now, nil)
	return true
}

// Complete ends the request in flight. A failed request leaves the cache as is.
func (d *Dispatcher) Complete(description string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vlm.inFlight = false
	if err != nil {
		return
	}

	d.vlm.hasResult = true
	d.vlm.lastResult = description
}

func (d *Dispatcher) InFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vlm.inFlight
}

// Reset drops all throttle and cache state.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastEmit = map[string]time.Time{}
	d.vlm = vlmState{}
}

func (d *Dispatcher) begin(now time.Time, center *model.Point) {
	d.vlm.inFlight = true
	d.vlm.lastCall = now
	d.vlm.lastCenter = center
}

// moved reports whether the look point travelled farther than the threshold.
// An unknown point on either side counts as movement.
func (d *Dispatcher) moved(last, current *model.Point) bool {
	if last == nil || current == nil {
		return true
	}
	return last.Distance(*current) > d.opts.CameraMoveThresholdPx
}
