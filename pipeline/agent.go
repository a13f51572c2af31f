package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
)

// Agent wires one camera: its streamers first, then the framer feeding them.
// It returns when the context is cancelled.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	errorStream chan interface{},
	statsStream chan interface{},
	alertStream chan model.ExhibitEvent,
	camera model.Camera,
	streamers []Streamer) error {
	if len(streamers) == 0 {
		return fmt.Errorf("no streamers for camera %s", camera.ID)
	}

	agentID := uuid.NewString()
	lgr.Logger.Info(
		"agent starting....",
		slog.String("agentID", agentID),
		slog.String("camera", camera.Name),
		slog.String("framerType", camera.FramerType),
		slog.String("source", camera.Source),
		slog.Int("streamers", len(streamers)),
	)

	streamChannels := []chan FrameData{}
	for _, streamer := range streamers {
		streamChannels = append(streamChannels, streamer(canxCtx, svcs, camera, errorStream, statsStream, alertStream))
	}

	framer(canxCtx, camera, errorStream, statsStream, streamChannels)

	<-canxCtx.Done()
	lgr.Logger.Info("agent context cancelled", slog.String("agentID", agentID))
	return nil
}
