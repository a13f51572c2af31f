package inference

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
	"github.com/mdobak/go-xerrors"
	"gocv.io/x/gocv"
)

type gocvService struct {
	params config.DetectorParameters
	labels []string

	// WARNING: net is not thread-safe!!!
	mu     sync.Mutex
	net    gocv.Net
	loaded bool
}

func NewGocv(params config.DetectorParameters, labels []string) IService {
	return &gocvService{
		params: params,
		labels: labels,
	}
}

func (svc *gocvService) Backend() string {
	return fmt.Sprintf("opencv-%s/cpu", gocv.Version())
}

// Load preflights the model files and reads the network. A failure here is
// fatal to detection for the session.
func (svc *gocvService) Load(_ context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := os.Stat(svc.params.ModelPath); err != nil {
		return xerrors.New("model file", err)
	}
	if svc.params.ModelConfigPath != "" {
		if _, err := os.Stat(svc.params.ModelConfigPath); err != nil {
			return xerrors.New("model config file", err)
		}
	}

	net := gocv.ReadNet(svc.params.ModelPath, svc.params.ModelConfigPath)
	if net.Empty() {
		return xerrors.New(fmt.Sprintf("error reading model %s", svc.params.ModelPath))
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return xerrors.New("error setting backend", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return xerrors.New("error setting target", err)
	}

	svc.net = net
	svc.loaded = true
	return nil
}

// Detect runs the model on the frame scaled to the input size. If that fails
// it tries once more on the raw frame.
func (svc *gocvService) Detect(ctx context.Context, frame gocv.Mat) (Result, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if !svc.loaded {
		return Result{}, xerrors.New("model not loaded")
	}
	if frame.Empty() {
		return Result{}, xerrors.New("empty frame")
	}

	res, err := svc.forward(frame, true)
	if err == nil {
		return res, nil
	}

	lgr.Logger.DebugContext(ctx,
		"inference on scaled frame failed, trying raw frame",
		slog.Any("error", err),
	)

	res, err2 := svc.forward(frame, false)
	if err2 != nil {
		return Result{}, xerrors.New(fmt.Sprintf("inference failed: %v", err), err2)
	}

	res.Fallback = true
	return res, nil
}

func (svc *gocvService) forward(frame gocv.Mat, scaled bool) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.New("recovered from inference panic", xerrors.FromRecover(r))
		}
	}()

	size := image.Pt(svc.params.InputSize, svc.params.InputSize)
	src := frame
	if scaled {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(frame, &resized, size, 0, 0, gocv.InterpolationLinear)
		if resized.Empty() {
			return Result{}, xerrors.New("resize produced an empty frame")
		}
		src = resized
	}

	blob := gocv.BlobFromImage(src, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	svc.net.SetInput(blob, "")

	outs := svc.net.ForwardLayers(svc.params.OutputLayers)
	defer func() {
		for _, o := range outs {
			o.Close()
		}
	}()

	if len(outs) != 3 {
		return Result{}, xerrors.New(fmt.Sprintf("expected 3 outputs (boxes, scores, classes), got %d", len(outs)))
	}

	data := make([][]float32, 3)
	for i, o := range outs {
		if o.Empty() {
			return Result{}, xerrors.New(fmt.Sprintf("output %s is empty", svc.params.OutputLayers[i]))
		}
		values, err := o.DataPtrFloat32()
		if err != nil {
			return Result{}, xerrors.New(fmt.Sprintf("output %s", svc.params.OutputLayers[i]), err)
		}
		// copy out of the Mat before it is closed
		data[i] = append([]float32(nil), values...)
	}

	dets, rejected := Normalize(data[0], data[1], data[2], svc.labels, svc.params.Threshold)
	return Result{Detections: dets, Rejected: rejected}, nil
}

func (svc *gocvService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.loaded {
		svc.loaded = false
		return svc.net.Close()
	}
	return nil
}
