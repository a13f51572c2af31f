package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

type httpService struct {
	url        string
	httpClient *http.Client
}

func NewHTTP(url string, timeout time.Duration) IService {
	return &httpService{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post sends payload as a JSON body. Any non-2xx answer is an error.
func (svc *httpService) Post(payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return xerrors.Errorf("failed to marshal webhook payload: %w", err)
	}

	resp, err := svc.httpClient.Post(svc.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}
