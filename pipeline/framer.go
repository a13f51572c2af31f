package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

const (
	FramerCamera = "camera"
	FramerRTSP   = "rtsp"
	FramerFile   = "file"
	FramerRandom = "random"

	randomFrameInterval = 100 * time.Millisecond
)

// framer owns the stream channels: it is their only sender and closes them
// when it exits.
func framer(canxCtx context.Context, camera model.Camera, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) {
	if camera.FramerType == FramerRandom {
		go randomFramer(canxCtx, camera, statsStream, streamChannels)
		return
	}

	go captureFramer(canxCtx, camera, errorStream, statsStream, streamChannels)
}

type framerCounters struct {
	name      string
	camera    string
	startTime int64
	frames    int
	dropped   int
	errors    int
}

func (c *framerCounters) stats() model.FramerStats {
	now := time.Now().Unix()
	uptime := now - c.startTime
	fps := 0
	if uptime > 0 {
		fps = int(float64(c.frames) / float64(uptime))
	}

	return model.FramerStats{
		Name:      c.name,
		Camera:    c.camera,
		FPS:       fps,
		Frames:    c.frames,
		Dropped:   c.dropped,
		Errors:    c.errors,
		Uptime:    uptime,
		Timestamp: now,
	}
}

// fanOut hands a clone of img to every streamer that is ready for it. A busy
// streamer (full channel) misses the frame.
func fanOut(img gocv.Mat, counters *framerCounters, streamChannels []chan FrameData) {
	ts := time.Now()
	for _, streamChan := range streamChannels {
		frame := FrameData{Mat: img.Clone(), Timestamp: ts}
		select {
		case streamChan <- frame:
		default:
			counters.dropped++
			frame.Mat.Close()
		}
	}
}

func closeStreams(streamChannels []chan FrameData) {
	for _, streamChan := range streamChannels {
		close(streamChan)
	}
}

func openCapture(camera model.Camera) (*gocv.VideoCapture, error) {
	if camera.FramerType == FramerCamera || camera.FramerType == "" {
		device, err := strconv.Atoi(camera.Source)
		if err != nil {
			return nil, fmt.Errorf("camera source must be a device index: %q", camera.Source)
		}
		return gocv.OpenVideoCapture(device)
	}

	return gocv.OpenVideoCapture(camera.Source)
}

func captureFramer(canxCtx context.Context, camera model.Camera, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) {
	defer closeStreams(streamChannels)

	counters := &framerCounters{
		name:      camera.FramerType + "Framer",
		camera:    camera.Name,
		startTime: time.Now().Unix(),
	}
	defer func() {
		report(statsStream, counters.stats())
	}()

	capture, err := openCapture(camera)
	if err != nil {
		report(errorStream, model.GenError("capture_framer",
			err,
			map[string]interface{}{"source": camera.Source},
			"error opening video source"))
		return
	}
	defer capture.Close()

	lgr.Logger.Info("framer started",
		slog.String("camera", camera.Name),
		slog.String("framer", camera.FramerType),
		slog.String("source", camera.Source),
	)

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("captureFramer context cancelled")
			return

		default:
			if ok := capture.Read(&img); !ok || img.Empty() {
				if camera.FramerType == FramerFile {
					lgr.Logger.Info("captureFramer reached end of file", slog.String("source", camera.Source))
					return
				}
				counters.errors++
				continue
			}

			counters.frames++
			fanOut(img, counters, streamChannels)
		}
	}
}

func randomFramer(canxCtx context.Context, camera model.Camera, statsStream chan interface{}, streamChannels []chan FrameData) {
	defer closeStreams(streamChannels)

	counters := &framerCounters{
		name:      "randomFramer",
		camera:    camera.Name,
		startTime: time.Now().Unix(),
	}
	defer func() {
		report(statsStream, counters.stats())
	}()

	ticker := time.NewTicker(randomFrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("randomFramer context cancelled")
			return

		case <-ticker.C:
			// 480x640 BGR
			img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
			counters.frames++
			fanOut(img, counters, streamChannels)
			img.Close()
		}
	}
}
