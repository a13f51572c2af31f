package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/khaledhikmat/exhibit-guide/dispatch"
	"github.com/khaledhikmat/exhibit-guide/mission"
	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/catalog"
	"github.com/khaledhikmat/exhibit-guide/service/data"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
	"github.com/khaledhikmat/exhibit-guide/service/storage"
)

const defaultListLimit = 20

// Detector is what the control API needs from the running exhibit detector.
type Detector interface {
	HUD() dispatch.HUD
	Ask(ctx context.Context) (model.Description, error)
}

type Control struct {
	Detector   Detector
	DataSvc    data.IService
	CatalogSvc catalog.IService
	StorageSvc storage.IService
	Missions   *mission.Store
}

func NewControlRouter(c *Control) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(Tracing)

	r.Get("/ping", PingHandler)
	r.Get("/snapshots/{name}", c.SnapshotHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/hud", c.HUDHandler)
		r.Post("/ask", c.AskHandler)
		r.Get("/events", c.EventsHandler)
		r.Get("/descriptions", c.DescriptionsHandler)
		r.Get("/exhibits", c.ExhibitsHandler)
		r.Get("/exhibits/{label}", c.ExhibitHandler)

		r.Get("/mission", c.MissionHandler)
		r.Post("/missions", c.CreateMissionSessionHandler)
		r.Get("/missions/{id}", c.MissionProgressHandler)
		r.Post("/missions/{id}/open", c.OpenZoneHandler)
		r.Post("/missions/{id}/answer", c.AnswerHandler)
		r.Post("/missions/{id}/finish", c.FinishHandler)
	})

	return r
}

func (c *Control) HUDHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Detector.HUD())
}

func (c *Control) AskHandler(w http.ResponseWriter, r *http.Request) {
	desc, err := c.Detector.Ask(r.Context())
	switch {
	case errors.Is(err, dispatch.ErrDescriptionInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dispatch.ErrNoFrame):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		lgr.Logger.ErrorContext(r.Context(), "ask failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, desc)
	}
}

func (c *Control) EventsHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)

	var events []model.ExhibitEvent
	var err error
	if label := r.URL.Query().Get("label"); label != "" {
		events, err = c.DataSvc.RetrieveExhibitEventsByLabel(label, limit)
	} else {
		events, err = c.DataSvc.RetrieveExhibitEvents(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (c *Control) DescriptionsHandler(w http.ResponseWriter, r *http.Request) {
	descriptions, err := c.DataSvc.RetrieveDescriptions(queryLimit(r, defaultListLimit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve descriptions")
		return
	}

	writeJSON(w, http.StatusOK, descriptions)
}

func (c *Control) ExhibitsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.CatalogSvc.RetrieveExhibits())
}

func (c *Control) ExhibitHandler(w http.ResponseWriter, r *http.Request) {
	exhibit, ok := c.CatalogSvc.RetrieveExhibitByLabel(chi.URLParam(r, "label"))
	if !ok {
		writeError(w, http.StatusNotFound, "exhibit not found")
		return
	}

	writeJSON(w, http.StatusOK, exhibit)
}

func (c *Control) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	path, err := c.StorageSvc.Open(chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func (c *Control) MissionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Missions.Mission())
}

func (c *Control) CreateMissionSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := c.Missions.Create()
	writeJSON(w, http.StatusCreated, s.Progress())
}

func (c *Control) MissionProgressHandler(w http.ResponseWriter, r *http.Request) {
	s, err := c.Missions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeMissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.Progress())
}

// openZoneRequest names the zone directly, by its map space, or by the
// visitor's position.
type openZoneRequest struct {
	ZoneID    string   `json:"zoneId"`
	SpaceName string   `json:"spaceName"`
	Lng       *float64 `json:"lng"`
	Lat       *float64 `json:"lat"`
}

func (c *Control) OpenZoneHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req openZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var zone mission.Zone
	var err error
	switch {
	case req.Lng != nil && req.Lat != nil:
		zone, err = c.Missions.OpenZoneAt(id, *req.Lng, *req.Lat)
	default:
		var s *mission.Session
		s, err = c.Missions.Get(id)
		if err != nil {
			break
		}
		if req.ZoneID != "" {
			zone, err = s.OpenZone(req.ZoneID)
		} else {
			zone, err = s.OpenZoneBySpace(req.SpaceName)
		}
	}
	if err != nil {
		writeMissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, zone)
}

type answerRequest struct {
	Index *int `json:"index"`
}

func (c *Control) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	s, err := c.Missions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeMissionError(w, err)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}

	fb, err := s.Answer(*req.Index)
	if err != nil {
		writeMissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fb)
}

func (c *Control) FinishHandler(w http.ResponseWriter, r *http.Request) {
	s, err := c.Missions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeMissionError(w, err)
		return
	}

	if err := s.Finish(); err != nil {
		writeMissionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.Progress())
}

func writeMissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mission.ErrUnknownSession), errors.Is(err, mission.ErrUnknownZone):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mission.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mission.ErrAlreadyCompleted),
		errors.Is(err, mission.ErrNoActiveZone),
		errors.Is(err, mission.ErrIncomplete):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
