package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

type alerter struct {
	svcs          ServicesFactory
	detectionsLog io.Writer

	alerts        int
	publishErrors int
	errors        int
}

func newDetectionsLogger(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}
}

// ExhibitAlerter enriches, stores, logs and publishes confirmed exhibits.
func ExhibitAlerter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) chan model.ExhibitEvent {
	in := make(chan model.ExhibitEvent, svcs.CfgSvc.GetAlertBufferSize())

	go func() {
		detectionsLog := newDetectionsLogger(svcs.CfgSvc.GetDetectionsLogFile())
		defer detectionsLog.Close()

		a := &alerter{
			svcs:          svcs,
			detectionsLog: detectionsLog,
		}

		startTime := time.Now().Unix()
		defer func() {
			report(statsStream, a.stats(startTime))
		}()

		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info("alerter context cancelled")
				return

			case evt := <-in:
				for _, err := range a.handle(evt) {
					report(errorStream, err)
				}
			}
		}
	}()

	return in
}

// handle never stops on a failing step; each failure is returned for the
// error stream.
func (a *alerter) handle(evt model.ExhibitEvent) []error {
	errs := []error{}
	a.alerts++

	if exhibit, ok := a.svcs.CatalogSvc.RetrieveExhibitByLabel(evt.Label); ok {
		evt.Title = exhibit.Title
		evt.ShortDescription = exhibit.ShortDescription
	} else {
		evt.Title = evt.Label
	}

	if len(evt.Snapshot) > 0 {
		url, err := a.svcs.StorageSvc.StoreSnapshot(evt.ID, evt.Snapshot)
		if err != nil {
			a.errors++
			errs = append(errs, model.GenError("exhibit_alerter", err, map[string]interface{}{"event": evt.ID}, "error storing snapshot"))
		}
		evt.SnapshotURL = url
	}

	if err := a.svcs.DataSvc.NewExhibitEvent(evt); err != nil {
		a.errors++
		errs = append(errs, model.GenError("exhibit_alerter", err, map[string]interface{}{"event": evt.ID}, "error storing exhibit event"))
	}

	a.logDetection(evt)

	if err := a.svcs.EmitterSvc.Emit(evt); err != nil {
		a.publishErrors++
		lgr.Logger.Warn("failed to publish exhibit event", slog.String("label", evt.Label), slog.Any("error", err))
		errs = append(errs, model.GenError("exhibit_alerter", err, map[string]interface{}{"event": evt.ID}, "error publishing exhibit event"))
	}

	lgr.Logger.Info("exhibit confirmed",
		slog.String("camera", evt.Camera),
		slog.String("label", evt.Label),
		slog.String("title", evt.Title),
		slog.Float64("probability", evt.Probability),
		slog.Time("timestamp", evt.Timestamp),
	)

	return errs
}

func (a *alerter) logDetection(evt model.ExhibitEvent) {
	entry := map[string]interface{}{
		"time":        evt.Timestamp.Format(time.RFC3339),
		"camera":      evt.Camera,
		"label":       evt.Label,
		"probability": evt.Probability,
		"boundingBox": evt.BoundingBox,
		"snapshotUrl": evt.SnapshotURL,
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		lgr.Logger.Warn("error marshaling detection", slog.Any("error", err))
		return
	}

	if _, err := a.detectionsLog.Write(append(jsonData, '\n')); err != nil {
		lgr.Logger.Warn("error writing to detections log", slog.Any("error", err))
	}
}

func (a *alerter) stats(startTime int64) model.AlerterStats {
	now := time.Now().Unix()
	return model.AlerterStats{
		Name:          "exhibitAlerter",
		Alerts:        a.alerts,
		PublishErrors: a.publishErrors,
		Errors:        a.errors,
		Uptime:        now - startTime,
		Timestamp:     now,
	}
}
