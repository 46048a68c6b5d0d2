package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"aistudio/internal/apperr"
)

const (
	defaultChatModel   = "gpt-4o-mini"
	defaultVisionModel = "gpt-4o"
)

// OpenAIClient talks to the OpenAI chat, moderation, and video APIs.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	videoModel string
	seconds    int
	httpClient *http.Client
	log        *logrus.Logger
}

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // defaults to the public API
	VideoModel string
	Seconds    int
	Timeout    time.Duration
}

// NewOpenAIClient builds a client for the OpenAI REST APIs.
func NewOpenAIClient(opts OpenAIOptions, log *logrus.Logger) *OpenAIClient {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		apiKey:     opts.APIKey,
		baseURL:    base,
		videoModel: opts.VideoModel,
		seconds:    opts.Seconds,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log,
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText runs a chat completion. When image is set, the user message
// carries the image as an inline data URL and the vision model is used.
func (c *OpenAIClient) GenerateText(ctx context.Context, system, user string, image []byte) (string, error) {
	model := defaultChatModel
	userContent := interface{}(user)
	if image != nil {
		model = defaultVisionModel
		userContent = []chatPart{
			{Type: "text", Text: user},
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL(image)}},
		}
	}

	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: userContent},
	}
	return c.chat(ctx, model, messages)
}

// AnalyzeImage runs a single-prompt vision call.
func (c *OpenAIClient) AnalyzeImage(ctx context.Context, prompt string, image []byte) (string, error) {
	messages := []chatMessage{
		{Role: "user", Content: []chatPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL(image)}},
		}},
	}
	return c.chat(ctx, defaultVisionModel, messages)
}

func (c *OpenAIClient) chat(ctx context.Context, model string, messages []chatMessage) (string, error) {
	payload := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"temperature": 0.7,
	}

	var out chatResponse
	if err := c.postJSON(ctx, "/chat/completions", payload, &out); err != nil {
		return "", &apperr.ServiceError{Message: fmt.Sprintf("OpenAI chat completion failed: %v", err), Err: err}
	}
	if len(out.Choices) == 0 {
		return "", apperr.Service("OpenAI chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// CheckModeration reports whether text violates content policy.
func (c *OpenAIClient) CheckModeration(ctx context.Context, text string) (bool, error) {
	payload := map[string]interface{}{"input": text}
	var out struct {
		Results []struct {
			Flagged bool `json:"flagged"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, "/moderations", payload, &out); err != nil {
		return false, &apperr.ServiceError{Message: fmt.Sprintf("moderation check failed: %v", err), Err: err}
	}
	if len(out.Results) == 0 {
		return false, apperr.Service("moderation check returned no results")
	}
	return out.Results[0].Flagged, nil
}

// CreateVideoJob submits a video generation job via multipart form, attaching
// the reference image when present.
func (c *OpenAIClient) CreateVideoJob(ctx context.Context, prompt string, referenceImage []byte, size string) (string, error) {
	build := func() (*http.Request, error) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		_ = w.WriteField("prompt", prompt)
		_ = w.WriteField("model", c.videoModel)
		_ = w.WriteField("seconds", fmt.Sprintf("%d", c.seconds))
		_ = w.WriteField("size", size)
		if referenceImage != nil {
			part, err := w.CreateFormFile("input_reference", "reference.png")
			if err != nil {
				return nil, err
			}
			if _, err := part.Write(referenceImage); err != nil {
				return nil, err
			}
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(build, &out); err != nil {
		return "", &apperr.ServiceError{Message: fmt.Sprintf("video job creation failed: %v", err), Err: err}
	}
	return out.ID, nil
}

// RemixVideoJob edits a previously generated video with a new prompt.
func (c *OpenAIClient) RemixVideoJob(ctx context.Context, externalID, prompt string) (string, error) {
	payload := map[string]interface{}{"prompt": prompt}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/videos/"+externalID+"/remix", payload, &out); err != nil {
		return "", &apperr.ServiceError{Message: fmt.Sprintf("video remix failed: %v", err), Err: err}
	}
	return out.ID, nil
}

// GetVideoJobStatus fetches the current status of a video job.
func (c *OpenAIClient) GetVideoJobStatus(ctx context.Context, externalID string) (VideoJobStatus, error) {
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+externalID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	}

	var out struct {
		Status string `json:"status"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := c.doJSON(build, &out); err != nil {
		return VideoJobStatus{}, &apperr.ServiceError{Message: fmt.Sprintf("video status check failed: %v", err), Err: err}
	}
	return VideoJobStatus{Status: out.Status, Error: out.Error.Message}, nil
}

// DownloadVideoContent fetches the raw generated video bytes.
func (c *OpenAIClient) DownloadVideoContent(ctx context.Context, externalID string) ([]byte, error) {
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+externalID+"/content", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	}

	req, err := build()
	if err != nil {
		return nil, err
	}
	resp, err := doWithRetry(c.httpClient, req, build)
	if err != nil {
		return nil, &apperr.ServiceError{Message: fmt.Sprintf("video download failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.Service("video download returned status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

func (c *OpenAIClient) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	return c.doJSON(build, out)
}

func (c *OpenAIClient) doJSON(build func() (*http.Request, error), out interface{}) error {
	req, err := build()
	if err != nil {
		return err
	}
	resp, err := doWithRetry(c.httpClient, req, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 512))
	}
	return json.Unmarshal(body, out)
}

func dataURL(image []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
