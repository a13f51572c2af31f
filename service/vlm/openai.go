package vlm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mdobak/go-xerrors"
)

type openAIService struct {
	url        string
	apiKey     string
	model      string
	prompt     string
	httpClient *http.Client
}

// NewOpenAI asks an OpenAI compatible chat-completions API for a caption.
func NewOpenAI(url, apiKey, model, prompt string, timeout time.Duration) IService {
	return &openAIService{
		url:    url,
		apiKey: apiKey,
		model:  model,
		prompt: prompt,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (svc *openAIService) Describe(ctx context.Context, jpeg []byte) (string, error) {
	if svc.apiKey == "" {
		return "", xerrors.New("no OpenAI API key configured")
	}

	reqBody := openAIRequest{
		Model: svc.model,
		Messages: []openAIMessage{
			{
				Role: "user",
				Content: []openAIContentPart{
					{
						Type: "text",
						Text: svc.prompt,
					},
					{
						Type: "image_url",
						ImageURL: &openAIImageURL{
							URL: fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(jpeg)),
						},
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", xerrors.New("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", xerrors.New("failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", svc.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		return "", xerrors.New("failed to make request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", xerrors.New("failed to read response", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", xerrors.New(fmt.Sprintf("failed to unmarshal response (HTTP %d)", resp.StatusCode), err)
	}

	if openAIResp.Error != nil {
		return "", xerrors.New(fmt.Sprintf("OpenAI API error: %s", openAIResp.Error.Message))
	}

	if len(openAIResp.Choices) == 0 {
		return "", xerrors.New("no response from OpenAI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}
