package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

var (
	ErrDescriptionInFlight = errors.New("a description request is already in flight")
	ErrNoFrame             = errors.New("no frame captured yet")
)

// Describer is the part of the VLM service a session needs.
type Describer interface {
	Describe(ctx context.Context, jpeg []byte) (string, error)
}

type SessionStats struct {
	Confirmed   int64
	Suppressed  int64
	VlmCalls    int64
	VlmReused   int64
	VlmFailures int64
}

// Session applies dispatcher decisions to the display and runs description
// requests in the background. ctx is the session's active flag: once it is
// cancelled, completions no longer touch the display.
type Session struct {
	ctx           context.Context
	dispatcher    *Dispatcher
	display       *Display
	describer     Describer
	fallback      string
	onDescription func(model.Description)
	now           func() time.Time

	wg sync.WaitGroup

	confirmed   atomic.Int64
	suppressed  atomic.Int64
	vlmCalls    atomic.Int64
	vlmReused   atomic.Int64
	vlmFailures atomic.Int64
}

func NewSession(ctx context.Context, opts Options, describer Describer, fallback string, onDescription func(model.Description)) *Session {
	return &Session{
		ctx:           ctx,
		dispatcher:    NewDispatcher(opts),
		display:       NewDisplay(opts),
		describer:     describer,
		fallback:      fallback,
		onDescription: onDescription,
		now:           time.Now,
	}
}

func (s *Session) Display() *Display {
	return s.display
}

func (s *Session) Dispatcher() *Dispatcher {
	return s.dispatcher
}

func (s *Session) HUD() HUD {
	return s.display.Snapshot(s.now())
}

// Tick runs one decision over the detections of a frame. capture is only
// invoked when a new description must be requested.
func (s *Session) Tick(detections []model.Detection, frameW, frameH int, capture func() ([]byte, error)) Decision {
	now := s.now()
	s.display.SetPredictions(now, detections)

	var dec Decision
	top, ok := model.Top(detections)
	if ok {
		dec = s.dispatcher.Decide(now, &top, top.BoundingBox.Center(frameW, frameH))
	} else {
		dec = s.dispatcher.Decide(now, nil, model.Point{})
	}

	switch dec.Action {
	case ActionConfirm:
		s.confirmed.Add(1)
		s.display.ShowLabel(now, dec.Detection)
	case ActionSuppress:
		s.suppressed.Add(1)
	case ActionReuse:
		s.vlmReused.Add(1)
		s.display.ShowDescription(now, dec.Cached)
	case ActionClear:
		s.display.ClearLabel()
	case ActionDescribe:
		jpeg, err := capture()
		if err != nil {
			lgr.Logger.Warn("session.Tick - frame capture failed", slog.Any("error", err))
			s.vlmFailures.Add(1)
			s.dispatcher.Complete("", err)
			break
		}
		s.describeAsync(now, dec.Detection.Label, jpeg)
	}

	return dec
}

func (s *Session) describeAsync(now time.Time, label string, jpeg []byte) {
	s.vlmCalls.Add(1)
	s.display.StartThinking(now)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		text, err := s.describer.Describe(s.ctx, jpeg)
		if s.ctx.Err() != nil {
			s.dispatcher.Complete(text, err)
			return
		}

		// thinking stops while still in flight so a manual ask cannot start in between
		s.display.StopThinking()
		s.dispatcher.Complete(text, err)
		if err != nil {
			s.vlmFailures.Add(1)
			lgr.Logger.Warn("session.describe - description failed", "label", label, slog.Any("error", err))
			return
		}

		s.publish(model.Description{Label: label, Text: text})
	}()
}

// Ask requests a description on behalf of the visitor. It bypasses the cache
// and interval throttle. A failed request is answered with the fallback
// utterance.
func (s *Session) Ask(ctx context.Context, jpeg []byte) (model.Description, error) {
	now := s.now()
	if !s.dispatcher.BeginManual(now) {
		return model.Description{}, ErrDescriptionInFlight
	}

	s.vlmCalls.Add(1)
	s.display.StartThinking(now)

	text, err := s.describer.Describe(ctx, jpeg)
	if s.ctx.Err() == nil {
		s.display.StopThinking()
	}
	s.dispatcher.Complete(text, err)

	if err != nil {
		s.vlmFailures.Add(1)
		lgr.Logger.Warn("session.Ask - description failed, answering with fallback", slog.Any("error", err))
		return model.Description{
			ID:        uuid.NewString(),
			Text:      s.fallback,
			Manual:    true,
			Fallback:  true,
			Timestamp: s.now(),
		}, nil
	}

	d := model.Description{Text: text, Manual: true}
	if s.ctx.Err() == nil {
		d = s.publish(d)
	}
	return d, nil
}

func (s *Session) publish(d model.Description) model.Description {
	d.ID = uuid.NewString()
	d.Timestamp = s.now()
	s.display.ShowDescription(d.Timestamp, d.Text)
	if s.onDescription != nil && d.Text != "" {
		s.onDescription(d)
	}
	return d
}

func (s *Session) Stats() SessionStats {
	return SessionStats{
		Confirmed:   s.confirmed.Load(),
		Suppressed:  s.suppressed.Load(),
		VlmCalls:    s.vlmCalls.Load(),
		VlmReused:   s.vlmReused.Load(),
		VlmFailures: s.vlmFailures.Load(),
	}
}

// Wait blocks until the background description request, if any, returns.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close waits for outstanding requests and clears the display. Cancel the
// session context first so a slow request is abandoned.
func (s *Session) Close() {
	s.wg.Wait()
	s.display.Close()
	s.dispatcher.Reset()
}
