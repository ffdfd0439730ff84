package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client calls the face detection sidecar. The sidecar downloads the
// photo by URL, runs detection and returns whether a face was found
// plus the key of the blurred variant it stored next to the original.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type DetectResult struct {
	FaceDetected bool   `json:"face_detected"`
	BlurredKey   string `json:"blurred_key"`
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) DetectFace(ctx context.Context, photoURL, objectKey string) (DetectResult, error) {
	if strings.TrimSpace(photoURL) == "" {
		return DetectResult{}, fmt.Errorf("detect face: photo url is required")
	}

	payload, err := json.Marshal(map[string]string{
		"photo_url":  photoURL,
		"object_key": objectKey,
	})
	if err != nil {
		return DetectResult{}, fmt.Errorf("marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return DetectResult{}, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DetectResult{}, fmt.Errorf("call vision service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DetectResult{}, fmt.Errorf("unexpected vision status: %d", resp.StatusCode)
	}

	var result DetectResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return DetectResult{}, fmt.Errorf("decode vision response: %w", err)
	}
	return result, nil
}
