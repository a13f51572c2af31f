package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/khaledhikmat/exhibit-guide/service/lgr"
	"github.com/khaledhikmat/exhibit-guide/service/vlm"
)

const jpegQuality = 85

// Analyzer fronts the VLM provider for browsers and detectors.
type Analyzer struct {
	VlmSvc        vlm.IService
	FrameSize     int
	MaxUploadSize int64
}

func NewAnalyzerRouter(a *Analyzer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(Tracing)

	r.Get("/ping", PingHandler)
	r.Post(vlm.AnalyzeFramePath, a.AnalyzeFrameHandler)

	return r
}

func (a *Analyzer) AnalyzeFrameHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadSize)

	if err := r.ParseMultipartForm(a.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "image too large or malformed form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image")
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported image")
		return
	}

	// Fit never upscales
	img = imaging.Fit(img, a.FrameSize, a.FrameSize, imaging.Lanczos)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode image")
		return
	}

	text, err := a.VlmSvc.Describe(r.Context(), buf.Bytes())
	if err != nil {
		lgr.Logger.WarnContext(r.Context(), "vlm provider failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "vision provider failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": text})
}
