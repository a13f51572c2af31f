package vlm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
)

const AnalyzeFramePath = "/api/analyze-frame"

var boldMarkdown = regexp.MustCompile(`\*\*(.*?)\*\*`)

type httpService struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTP talks to an analyze-frame endpoint rooted at endpoint.
func NewHTTP(endpoint string, timeout time.Duration) IService {
	return &httpService{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type analyzeResponse struct {
	Result interface{} `json:"result"`
}

func (svc *httpService) Describe(ctx context.Context, jpeg []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return "", xerrors.New("failed to create form file", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return "", xerrors.New("failed to write frame", err)
	}
	if err := mw.Close(); err != nil {
		return "", xerrors.New("failed to close form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.endpoint+AnalyzeFramePath, body)
	if err != nil {
		return "", xerrors.New("failed to create request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		return "", xerrors.New("failed to make request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", xerrors.New(fmt.Sprintf("VLM Error HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", xerrors.New("failed to read response", err)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(data, &ar); err != nil {
		return "", xerrors.New("failed to unmarshal response", err)
	}

	text, _ := ar.Result.(string)
	return StripMarkdown(text), nil
}

// StripMarkdown removes **bold** markers the model likes to add.
func StripMarkdown(s string) string {
	return boldMarkdown.ReplaceAllString(s, "$1")
}
