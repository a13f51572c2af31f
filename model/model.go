package model

import (
	"fmt"
	"math"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

// BoundingBox is normalized to the frame: every field is in 0..1.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the box center in pixel coordinates of a w x h frame.
func (b BoundingBox) Center(w, h int) Point {
	return Point{
		X: (b.Left + b.Width/2) * float64(w),
		Y: (b.Top + b.Height/2) * float64(h),
	}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Distance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

type Detection struct {
	Label       string      `json:"label"`
	Probability float64     `json:"probability"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// Top returns the most probable detection or false when there is none.
func Top(detections []Detection) (Detection, bool) {
	if len(detections) == 0 {
		return Detection{}, false
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Probability > best.Probability {
			best = d
		}
	}
	return best, true
}

type Camera struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Source     string `json:"source" yaml:"source"`
	FramerType string `json:"framerType" yaml:"framer_type"`
}

type Exhibit struct {
	Label            string `json:"label" yaml:"label"`
	Title            string `json:"title" yaml:"title"`
	ShortDescription string `json:"shortDescription" yaml:"short_description"`
}

// ExhibitEvent is emitted once per confirmed (strong band) detection.
type ExhibitEvent struct {
	ID               string      `json:"id" msgpack:"id"`
	Label            string      `json:"label" msgpack:"label"`
	Title            string      `json:"title" msgpack:"title"`
	ShortDescription string      `json:"shortDescription" msgpack:"shortDescription"`
	Probability      float64     `json:"probability" msgpack:"probability"`
	BoundingBox      BoundingBox `json:"boundingBox" msgpack:"boundingBox"`
	Camera           string      `json:"camera" msgpack:"camera"`
	SnapshotURL      string      `json:"snapshotUrl" msgpack:"snapshotUrl"`
	Timestamp        time.Time   `json:"timestamp" msgpack:"timestamp"`
	Snapshot         []byte      `json:"-" msgpack:"-"`
}

type Description struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Text      string    `json:"text"`
	Manual    bool      `json:"manual"`
	Fallback  bool      `json:"fallback"`
	Timestamp time.Time `json:"timestamp"`
}

type DetectorStats struct {
	Name            string  `json:"name"`
	Camera          string  `json:"camera"`
	Frames          int     `json:"frames"`
	Inferences      int     `json:"inferences"`
	InferenceErrors int     `json:"inferenceErrors"`
	Fallbacks       int     `json:"fallbacks"`
	Confirmed       int     `json:"confirmed"`
	Suppressed      int     `json:"suppressed"`
	VlmCalls        int     `json:"vlmCalls"`
	VlmReused       int     `json:"vlmReused"`
	VlmFailures     int     `json:"vlmFailures"`
	Uptime          int64   `json:"uptime"`
	FPS             int     `json:"fps"`
	AvgProcTime     float64 `json:"avgProcTime"`
	Timestamp       int64   `json:"timestamp"`
}

type FramerStats struct {
	Name      string `json:"name"`
	Camera    string `json:"camera"`
	FPS       int    `json:"fps"`
	Frames    int    `json:"frames"`
	Dropped   int    `json:"dropped"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}

type AlerterStats struct {
	Name          string `json:"name"`
	Alerts        int    `json:"alerts"`
	PublishErrors int    `json:"publishErrors"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}
