package inference

import (
	"context"

	"github.com/khaledhikmat/exhibit-guide/model"
	"gocv.io/x/gocv"
)

type Result struct {
	Detections []model.Detection `json:"detections"`
	// Rejected counts model rows dropped for violating the output contract.
	Rejected int `json:"rejected"`
	// Fallback is set when the primary call failed and the raw frame was used.
	Fallback bool `json:"fallback"`
}

type IService interface {
	Load(ctx context.Context) error
	Detect(ctx context.Context, frame gocv.Mat) (Result, error)
	Backend() string
	Close() error
}
