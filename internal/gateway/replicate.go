package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"aistudio/internal/apperr"
)

const replicateModelVersion = "61ae0fde81fa61a6461554ea6bd15505a0cb5d9c8d3da3fc3a2737a745ade88b"

// ReplicateClient generates images through the Replicate predictions API
// using its synchronous-wait mode.
type ReplicateClient struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewReplicateClient builds a Replicate image client.
func NewReplicateClient(apiToken, baseURL string, timeout time.Duration, log *logrus.Logger) *ReplicateClient {
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1/predictions"
	}
	return &ReplicateClient{
		apiToken:   apiToken,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// GenerateImage creates a prediction and returns the first output URL.
func (c *ReplicateClient) GenerateImage(ctx context.Context, prompt, imageURL string) (string, error) {
	payload := map[string]interface{}{
		"version": replicateModelVersion,
		"input": map[string]interface{}{
			"seed":                888,
			"prompt":              prompt,
			"guidance":            1.05,
			"image_size":          1024,
			"aspect_ratio":        "match_input_image",
			"img_cond_path":       imageURL,
			"output_format":       "jpg",
			"output_quality":      80,
			"num_inference_steps": 40,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apperr.ServiceError{Message: fmt.Sprintf("Replicate request failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", apperr.Service("Replicate returned status %d: %s", resp.StatusCode, truncate(body, 512))
	}

	var result struct {
		Status string          `json:"status"`
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Output) == 0 || string(result.Output) == "null" {
		return "", apperr.Service("Replicate prediction produced no output (status %s)", result.Status)
	}

	// Output may be a single URL string or a list of them.
	var single string
	if err := json.Unmarshal(result.Output, &single); err == nil {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(result.Output, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}
	return "", apperr.Service("Replicate output has unexpected shape")
}
