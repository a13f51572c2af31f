package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/exhibit-guide/mode"
	"github.com/khaledhikmat/exhibit-guide/pipeline"
	"github.com/khaledhikmat/exhibit-guide/service/catalog"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/data"
	"github.com/khaledhikmat/exhibit-guide/service/emitter"
	"github.com/khaledhikmat/exhibit-guide/service/inference"
	"github.com/khaledhikmat/exhibit-guide/service/labels"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
	"github.com/khaledhikmat/exhibit-guide/service/storage"
	"github.com/khaledhikmat/exhibit-guide/service/vlm"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"detector": mode.Detector,
	"analyzer": mode.Analyzer,
	"describe": mode.Describe,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	lgr.Configure(lgr.OptionsFromEnv())

	modeType := "detector"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
		args = args[1:]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Config service
	cfgSvc, err := config.New()
	if err != nil {
		lgr.Logger.Error("invalid configuration", slog.Any("error", err))
		panic("invalid configuration")
	}

	svcs, err := newServices(canxCtx, cfgSvc, modeType)
	if err != nil {
		lgr.Logger.Error("failed to create services", slog.Any("error", err))
		panic("failed to create services")
	}
	defer closeServices(svcs)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, args)
	}()

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"exhibit guide context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"exhibit guide mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		canxFn()
		return
	}

	lgr.Logger.Info(
		"exhibit guide is waiting for the mode processor to exit",
	)

	// The only way to exit the main function is to wait for the mode
	// processor or the shutdown duration
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"exhibit guide shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"exhibit guide mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}

// newServices creates the services for a mode. The analyzer talks to the
// hosted VLM directly; everything else goes through the analyzer endpoint.
func newServices(canxCtx context.Context, cfgSvc config.IService, modeType string) (pipeline.ServicesFactory, error) {
	svcs := pipeline.ServicesFactory{CfgSvc: cfgSvc}

	vlmParams := cfgSvc.GetVlmParameters()
	vlmTimeout := time.Duration(vlmParams.TimeoutSecs) * time.Second
	if modeType == "analyzer" {
		svcs.VlmSvc = vlm.NewOpenAI(vlmParams.OpenAIURL, vlmParams.OpenAIAPIKey, vlmParams.OpenAIModel, vlmParams.Prompt, vlmTimeout)
	} else {
		svcs.VlmSvc = vlm.NewHTTP(vlmParams.Endpoint, vlmTimeout)
	}

	if modeType != "detector" {
		return svcs, nil
	}

	var err error

	// Data service
	svcs.DataSvc, err = data.NewSQL(cfgSvc)
	if err != nil {
		return svcs, err
	}

	// Storage service
	svcs.StorageSvc, err = storage.NewLocal(cfgSvc)
	if err != nil {
		return svcs, err
	}

	// Catalog service
	svcs.CatalogSvc, err = catalog.New(cfgSvc)
	if err != nil {
		return svcs, err
	}

	// Emitter service
	svcs.EmitterSvc, err = emitter.New(cfgSvc)
	if err != nil {
		return svcs, err
	}

	// Inference service
	if cfgSvc.GetCamera().FramerType == pipeline.FramerRandom {
		exhibits := svcs.CatalogSvc.RetrieveExhibits()
		label := "Energy Story"
		if len(exhibits) > 0 {
			label = exhibits[0].Label
		}
		svcs.InferenceSvc = inference.NewDemo(label)
		return svcs, nil
	}

	params := cfgSvc.GetDetectorParameters()
	names, err := labels.Load(canxCtx, params.LabelsSource)
	if err != nil {
		// detections are still produced, labelled by class index
		lgr.Logger.Error("failed to load labels", slog.Any("error", err))
		names = []string{}
	}
	svcs.InferenceSvc = inference.NewGocv(params, names)

	return svcs, nil
}

func closeServices(svcs pipeline.ServicesFactory) {
	if svcs.EmitterSvc != nil {
		if err := svcs.EmitterSvc.Close(); err != nil {
			lgr.Logger.Warn("failed to close emitter", slog.Any("error", err))
		}
	}
	if svcs.DataSvc != nil {
		if err := svcs.DataSvc.Close(); err != nil {
			lgr.Logger.Warn("failed to close data service", slog.Any("error", err))
		}
	}
}
