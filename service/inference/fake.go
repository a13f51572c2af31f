package inference

import (
	"context"
	"sync"

	"github.com/khaledhikmat/exhibit-guide/model"
	"gocv.io/x/gocv"
)

// fakeService replays a script of detections, one entry per frame, looping
// at the end. It backs the random framer and tests.
type fakeService struct {
	mu      sync.Mutex
	script  [][]model.Detection
	next    int
	loadErr error
}

func NewFake(script ...[]model.Detection) IService {
	return &fakeService{script: script}
}

// NewFailingFake never loads.
func NewFailingFake(err error) IService {
	return &fakeService{loadErr: err}
}

func (svc *fakeService) Load(_ context.Context) error {
	return svc.loadErr
}

func (svc *fakeService) Backend() string {
	return "fake"
}

func (svc *fakeService) Detect(_ context.Context, _ gocv.Mat) (Result, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(svc.script) == 0 {
		return Result{Detections: []model.Detection{}}, nil
	}

	dets := svc.script[svc.next%len(svc.script)]
	svc.next++
	return Result{Detections: dets}, nil
}

func (svc *fakeService) Close() error {
	return nil
}

// NewDemo replays stretches of strong and gray detections of label followed
// by empty frames. It backs the random framer.
func NewDemo(label string) IService {
	box := model.BoundingBox{Left: 0.3, Top: 0.25, Width: 0.4, Height: 0.5}
	strong := []model.Detection{{Label: label, Probability: 0.95, BoundingBox: box}}
	gray := []model.Detection{{Label: label, Probability: 0.7, BoundingBox: box}}

	script := [][]model.Detection{}
	for i := 0; i < 30; i++ {
		script = append(script, strong)
	}
	for i := 0; i < 30; i++ {
		script = append(script, gray)
	}
	for i := 0; i < 30; i++ {
		script = append(script, []model.Detection{})
	}
	return NewFake(script...)
}
