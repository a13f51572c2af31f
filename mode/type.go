package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/pipeline"
	"github.com/khaledhikmat/exhibit-guide/service/data"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

// Processor runs one process mode until the context is cancelled.
// args are the command line arguments following the mode name.
type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory, args []string) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.DetectorStats:
		procDetectorStats(datasvc, stats)
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	case model.AlerterStats:
		procAlerterStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procDetectorStats(datasvc data.IService, stats model.DetectorStats) {
	err := datasvc.NewDetectorStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store detector stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procAlerterStats(datasvc data.IService, stats model.AlerterStats) {
	err := datasvc.NewAlerterStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store alerter stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}

// drain keeps storing stats and errors until the shutdown period expires, so
// exiting goroutines can still report.
func drain(datasvc data.IService, period time.Duration, statsStream, errorStream chan interface{}) {
	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				"shutdown waiting period expired",
				slog.Duration("period", period),
			)
			return

		case s := <-statsStream:
			procStats(datasvc, s)

		case e := <-errorStream:
			procError(datasvc, e)
		}
	}
}
