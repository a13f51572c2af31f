package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/exhibit-guide/dispatch"
	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

// ExhibitDetector runs inference on the frames of one camera and turns the
// results into dispatcher decisions. Its session is also reachable from the
// control API (HUD, ask AI).
type ExhibitDetector struct {
	svcs    ServicesFactory
	session *dispatch.Session
	params  config.DetectorParameters

	mu     sync.Mutex
	latest gocv.Mat
	hasMat bool
}

// NewExhibitDetector binds a detector session to canx: once canx is cancelled,
// late description results are discarded.
func NewExhibitDetector(canx context.Context, svcs ServicesFactory) *ExhibitDetector {
	params := svcs.CfgSvc.GetDetectorParameters()
	d := &ExhibitDetector{
		svcs:   svcs,
		params: params,
	}

	d.session = dispatch.NewSession(canx,
		dispatch.OptionsFromParameters(params),
		svcs.VlmSvc,
		params.FallbackUtterance,
		d.storeDescription)

	return d
}

func (d *ExhibitDetector) HUD() dispatch.HUD {
	return d.session.HUD()
}

// Ask describes the latest frame on the visitor's request.
func (d *ExhibitDetector) Ask(ctx context.Context) (model.Description, error) {
	jpeg, err := d.latestJPEG()
	if err != nil {
		return model.Description{}, err
	}

	desc, err := d.session.Ask(ctx, jpeg)
	if err != nil {
		return desc, err
	}

	// successful answers are stored by the session callback
	if desc.Fallback {
		d.storeDescription(desc)
	}
	return desc, nil
}

func (d *ExhibitDetector) storeDescription(desc model.Description) {
	if err := d.svcs.DataSvc.NewDescription(desc); err != nil {
		lgr.Logger.Error("failed to store description", slog.Any("error", err))
	}
}

func (d *ExhibitDetector) keepLatest(mat gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasMat {
		d.latest.Close()
	}
	d.latest = mat.Clone()
	d.hasMat = true
}

func (d *ExhibitDetector) latestJPEG() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasMat {
		return nil, dispatch.ErrNoFrame
	}
	return encodeJPEG(d.latest)
}

func (d *ExhibitDetector) release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasMat {
		d.latest.Close()
		d.hasMat = false
	}
}

func encodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

type detectorCounters struct {
	startTime      int64
	frames         int
	inferences     int
	errors         int
	fallbacks      int
	totalProcTime  time.Duration
	modelAvailable bool
}

func (d *ExhibitDetector) stats(camera model.Camera, c *detectorCounters) model.DetectorStats {
	now := time.Now().Unix()
	uptime := now - c.startTime
	fps := 0
	if uptime > 0 {
		fps = int(float64(c.frames) / float64(uptime))
	}

	var avgProcTime float64
	if c.inferences > 0 {
		avgProcTime = c.totalProcTime.Seconds() / float64(c.inferences)
	}

	s := d.session.Stats()
	return model.DetectorStats{
		Name:            config.ExhibitDetectorName,
		Camera:          camera.Name,
		Frames:          c.frames,
		Inferences:      c.inferences,
		InferenceErrors: c.errors,
		Fallbacks:       c.fallbacks,
		Confirmed:       int(s.Confirmed),
		Suppressed:      int(s.Suppressed),
		VlmCalls:        int(s.VlmCalls),
		VlmReused:       int(s.VlmReused),
		VlmFailures:     int(s.VlmFailures),
		Uptime:          uptime,
		FPS:             fps,
		AvgProcTime:     avgProcTime,
		Timestamp:       now,
	}
}

// Stream is a Streamer. The frame channel holds GetFrameBufferSize frames;
// frames arriving while inference runs are dropped by the framer, so
// inferences never overlap.
func (d *ExhibitDetector) Stream(canx context.Context, svcs ServicesFactory, camera model.Camera, errorStream chan interface{}, statsStream chan interface{}, alertStream chan model.ExhibitEvent) chan FrameData {
	in := make(chan FrameData, svcs.CfgSvc.GetFrameBufferSize())

	go func() {
		display := d.session.Display()
		display.SetBackend(svcs.InferenceSvc.Backend())

		lgr.Logger.Info("exhibit detector starting...",
			slog.String("camera", camera.Name),
			slog.String("model", d.params.ModelPath),
			slog.String("backend", svcs.InferenceSvc.Backend()),
		)

		counters := &detectorCounters{startTime: time.Now().Unix()}

		if err := svcs.InferenceSvc.Load(canx); err != nil {
			display.SetModelStatus(dispatch.ModelFailed, err.Error())
			report(errorStream, model.GenError("exhibit_detector",
				err,
				map[string]interface{}{"model": d.params.ModelPath},
				"error loading model, detection disabled"))
		} else {
			display.SetModelStatus(dispatch.ModelLoaded, "")
			counters.modelAvailable = true
		}

		defer func() {
			d.session.Close()
			d.release()
			if err := svcs.InferenceSvc.Close(); err != nil {
				lgr.Logger.Warn("failed to close inference service", slog.Any("error", err))
			}
			report(statsStream, d.stats(camera, counters))
		}()

		ticker := time.NewTicker(time.Duration(svcs.CfgSvc.GetStatsPeriodicTimeout()) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-canx.Done():
				// The framer closes the channel once it sees the cancellation
				for f := range in {
					f.Mat.Close()
				}
				lgr.Logger.Info("exhibit detector context cancelled")
				return

			case <-ticker.C:
				report(statsStream, d.stats(camera, counters))

			case f, ok := <-in:
				if !ok {
					lgr.Logger.Info("exhibit detector frame stream closed")
					return
				}

				start := time.Now()
				d.proc(canx, f, camera, counters, errorStream, alertStream)
				counters.frames++
				counters.totalProcTime += time.Since(start)
			}
		}
	}()

	return in
}

func (d *ExhibitDetector) proc(canx context.Context, frame FrameData, camera model.Camera, c *detectorCounters, errorStream chan interface{}, alertStream chan model.ExhibitEvent) {
	defer frame.Mat.Close()
	defer func() {
		if r := recover(); r != nil {
			c.errors++
			lgr.Logger.Error("exhibit detector recovered from panic", slog.Any("panic", r))
		}
	}()

	if frame.Mat.Empty() {
		return
	}

	d.keepLatest(frame.Mat)

	if !c.modelAvailable {
		return
	}

	res, err := d.svcs.InferenceSvc.Detect(canx, frame.Mat)
	c.inferences++
	if res.Fallback {
		c.fallbacks++
	}
	if err != nil {
		// No detections this tick, the loop carries on
		c.errors++
		d.session.Display().ReportError(err.Error())
		lgr.Logger.Warn("inference failed, skipping frame", slog.Any("error", err))
		report(errorStream, model.GenError("exhibit_detector",
			err,
			map[string]interface{}{"camera": camera.ID},
			"inference failed"))
	}

	if d.params.Logging && res.Rejected > 0 {
		lgr.Logger.Debug("rejected malformed detections", slog.Int("rejected", res.Rejected))
	}

	var snapshot []byte
	capture := func() ([]byte, error) {
		if snapshot != nil {
			return snapshot, nil
		}
		jpeg, err := encodeJPEG(frame.Mat)
		if err != nil {
			return nil, fmt.Errorf("failed to encode frame: %w", err)
		}
		snapshot = jpeg
		return jpeg, nil
	}

	dec := d.session.Tick(res.Detections, frame.Mat.Cols(), frame.Mat.Rows(), capture)

	if d.params.Logging {
		lgr.Logger.Debug("exhibit detector decision",
			slog.String("band", dec.Band.String()),
			slog.String("action", dec.Action.String()),
			slog.String("label", dec.Detection.Label),
			slog.Float64("probability", dec.Detection.Probability),
		)
	}

	if dec.Action != dispatch.ActionConfirm {
		return
	}

	jpeg, err := capture()
	if err != nil {
		lgr.Logger.Warn("confirmed exhibit without snapshot", slog.Any("error", err))
	}

	evt := model.ExhibitEvent{
		ID:          uuid.NewString(),
		Label:       dec.Detection.Label,
		Probability: dec.Detection.Probability,
		BoundingBox: dec.Detection.BoundingBox,
		Camera:      camera.ID,
		Timestamp:   frame.Timestamp,
		Snapshot:    jpeg,
	}

	select {
	case alertStream <- evt:
	default:
		lgr.Logger.Warn("alertStream full, dropping exhibit event", slog.String("label", evt.Label))
	}
}
