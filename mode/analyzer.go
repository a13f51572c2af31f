package mode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/exhibit-guide/api"
	"github.com/khaledhikmat/exhibit-guide/pipeline"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

// Analyzer serves the frame analysis endpoint in front of the VLM provider.
func Analyzer(canxCtx context.Context, svcs pipeline.ServicesFactory, _ []string) error {
	params := svcs.CfgSvc.GetVlmParameters()

	server := &http.Server{
		Addr: svcs.CfgSvc.GetAnalyzerAddr(),
		Handler: api.NewAnalyzerRouter(&api.Analyzer{
			VlmSvc:        svcs.VlmSvc,
			FrameSize:     params.FrameSize,
			MaxUploadSize: params.MaxUploadSize,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverResult := make(chan error, 1)
	go func() {
		lgr.Logger.Info("analyzer listening", slog.String("addr", server.Addr))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serverResult <- err
	}()

	select {
	case <-canxCtx.Done():
		lgr.Logger.Info("analyzer mode context cancelled")
	case err := <-serverResult:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
