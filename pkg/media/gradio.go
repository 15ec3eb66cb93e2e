package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GradioClient calls a hosted Gradio space over its REST API: submit a job
// to /gradio_api/call/infer, then read the server-sent event stream for the
// result.
type GradioClient struct {
	baseURL string
	client  *http.Client
}

// NewGradioClient takes a space reference like
// "black-forest-labs/FLUX.1-schnell" and derives its hosted URL.
func NewGradioClient(space string) *GradioClient {
	host := strings.ToLower(strings.NewReplacer("/", "-", ".", "-").Replace(space))
	return &GradioClient{
		baseURL: fmt.Sprintf("https://%s.hf.space", host),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type gradioCallResponse struct {
	EventID string `json:"event_id"`
}

// Generate runs text-to-image inference and returns the hosted image URL.
func (g *GradioClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		// prompt, seed, randomize_seed, width, height, num_inference_steps
		"data": []interface{}{prompt, 0, true, 512, 512, 2},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/gradio_api/call/infer", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference call failed with status %d", resp.StatusCode)
	}

	var call gradioCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return "", fmt.Errorf("failed to decode inference call response: %w", err)
	}
	if call.EventID == "" {
		return "", fmt.Errorf("inference call returned no event id")
	}

	return g.awaitResult(ctx, call.EventID)
}

// awaitResult streams the event result. The stream emits lines of the form
// "event: <name>" followed by "data: <json>"; the completion payload is an
// array whose first element holds the image reference.
func (g *GradioClient) awaitResult(ctx context.Context, eventID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/gradio_api/call/infer/"+eventID, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("result call failed with status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	event := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				return parseInferenceResult(data)
			case "error":
				return "", fmt.Errorf("inference failed: %s", data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("result stream failed: %w", err)
	}
	return "", fmt.Errorf("result stream ended without completion")
}

func parseInferenceResult(data string) (string, error) {
	var out []json.RawMessage
	if err := json.Unmarshal([]byte(data), &out); err != nil || len(out) == 0 {
		return "", fmt.Errorf("unexpected inference result: %s", data)
	}
	var image struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(out[0], &image); err != nil || image.URL == "" {
		return "", fmt.Errorf("inference result has no image url")
	}
	return image.URL, nil
}
