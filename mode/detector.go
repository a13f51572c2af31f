package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/exhibit-guide/api"
	"github.com/khaledhikmat/exhibit-guide/mission"
	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/pipeline"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

// Detector runs the camera agent with the exhibit detector and serves the
// control API (HUD, ask AI, history, missions) next to it.
func Detector(canxCtx context.Context, svcs pipeline.ServicesFactory, _ []string) error {
	// The pipeline runs under its own context so a failing control server
	// also stops the agent.
	pipelineCtx, pipelineCancel := context.WithCancel(canxCtx)
	defer pipelineCancel()

	m, err := mission.Load(svcs.CfgSvc.GetMissionFile())
	if err != nil {
		return err
	}

	zones, err := mission.LoadZones(svcs.CfgSvc.GetZonesFile(), m)
	if err != nil {
		return err
	}

	// Create an error stream
	errorStream := make(chan interface{})

	// Create a stats stream
	statsStream := make(chan interface{})

	alertStream := pipeline.ExhibitAlerter(pipelineCtx, svcs, errorStream, statsStream)

	det := pipeline.NewExhibitDetector(pipelineCtx, svcs)

	server := &http.Server{
		Addr: svcs.CfgSvc.GetControlAddr(),
		Handler: api.NewControlRouter(&api.Control{
			Detector:   det,
			DataSvc:    svcs.DataSvc,
			CatalogSvc: svcs.CatalogSvc,
			StorageSvc: svcs.StorageSvc,
			Missions:   mission.NewStore(m, zones),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverResult := make(chan error, 1)
	go func() {
		lgr.Logger.Info("control api listening", slog.String("addr", server.Addr))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serverResult <- err
	}()

	camera := svcs.CfgSvc.GetCamera()
	go func() {
		err := pipeline.Agent(pipelineCtx, svcs, errorStream, statsStream, alertStream, camera, []pipeline.Streamer{det.Stream})
		if err != nil {
			procError(svcs.DataSvc, model.GenError("detector_mode",
				err,
				map[string]interface{}{},
				"error starting agent for camera: %s",
				camera.Name))
		}
	}()

	var result error

	// Wait for cancellation, server failure, stats or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"detector mode context cancelled",
			)
			goto resume

		case err := <-serverResult:
			if err != nil {
				result = err
				lgr.Logger.Error(
					"control api failed",
					slog.Any("error", err),
				)
			}
			goto resume

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

resume:
	pipelineCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Logger.Warn("control api shutdown", slog.Any("error", err))
	}

	lgr.Logger.Info(
		"detector mode is waiting for all go routines to exit",
	)

	drain(svcs.DataSvc, time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second, statsStream, errorStream)
	return result
}
