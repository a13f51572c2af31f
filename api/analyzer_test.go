package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/khaledhikmat/exhibit-guide/service/vlm"
)

// capturingVlm records the frame it was asked to describe.
type capturingVlm struct {
	vlm.Fake
	frame []byte
}

func (c *capturingVlm) Describe(ctx context.Context, jpeg []byte) (string, error) {
	c.frame = jpeg
	return c.Fake.Describe(ctx, jpeg)
}

func multipartImage(t *testing.T, field string, width, height int) (*bytes.Buffer, string) {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, img, imaging.JPEG); err != nil {
		t.Fatal(err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, "frame.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(encoded.Bytes())
	mw.Close()

	return body, mw.FormDataContentType()
}

func TestAnalyzeFrameHandler(t *testing.T) {
	provider := &capturingVlm{Fake: vlm.Fake{Text: "A **science** gallery."}}
	h := NewAnalyzerRouter(&Analyzer{VlmSvc: provider, FrameSize: 512, MaxUploadSize: 10 << 20})

	body, contentType := multipartImage(t, "image", 1024, 768)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-frame", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["result"] != "A **science** gallery." {
		t.Errorf("unexpected result %q", resp["result"])
	}

	img, _, err := image.Decode(bytes.NewReader(provider.frame))
	if err != nil {
		t.Fatalf("provider did not receive a jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 384 {
		t.Errorf("expected frame downscaled to 512x384, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestAnalyzeFrameHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		provider   vlm.IService
		wantStatus int
	}{
		{"missing image field", "file", &vlm.Fake{}, http.StatusBadRequest},
		{"provider failure", "image", &vlm.Fake{Err: errors.New("quota")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzerRouter(&Analyzer{VlmSvc: tt.provider, FrameSize: 512, MaxUploadSize: 10 << 20})

			body, contentType := multipartImage(t, tt.field, 64, 64)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze-frame", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestAnalyzeFrameRejectsNonImage(t *testing.T) {
	h := NewAnalyzerRouter(&Analyzer{VlmSvc: &vlm.Fake{}, FrameSize: 512, MaxUploadSize: 10 << 20})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("image", "frame.jpg")
	part.Write([]byte("not an image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-frame", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
