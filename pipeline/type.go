package pipeline

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/catalog"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/data"
	"github.com/khaledhikmat/exhibit-guide/service/emitter"
	"github.com/khaledhikmat/exhibit-guide/service/inference"
	"github.com/khaledhikmat/exhibit-guide/service/storage"
	"github.com/khaledhikmat/exhibit-guide/service/vlm"
)

const (
	reportTimeout = 2 * time.Second
)

type FrameData struct {
	Mat       gocv.Mat
	Timestamp time.Time
}

// ServicesFactory carries the services shared by every pipeline stage.
type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	InferenceSvc inference.IService
	VlmSvc       vlm.IService
	EmitterSvc   emitter.IService
	StorageSvc   storage.IService
	CatalogSvc   catalog.IService
}

// Signature of streamer function
type Streamer func(canx context.Context, svcs ServicesFactory, camera model.Camera, errorStream chan interface{}, statsStream chan interface{}, alertStream chan model.ExhibitEvent) chan FrameData

// Signature of alerter function
type Alerter func(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) chan model.ExhibitEvent

// report hands a value to a mode stream. The mode keeps draining its streams
// during shutdown, so the timeout only guards against a mode that is gone.
func report(stream chan interface{}, v interface{}) {
	select {
	case stream <- v:
	case <-time.After(reportTimeout):
	}
}
