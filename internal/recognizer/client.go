package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Result is the outcome of a recognition attempt. Exactly one of the two
// shapes occurs: recognized with a confidence percentage, or not recognized.
type Result struct {
	Recognized bool
	UserID     string
	Confidence int
}

// Client calls the external face recognition backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
}

// NewClient creates a client with a fixed per-call timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Timeout: timeout,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Recognize sends a base64 frame to the backend. Transport failures, timeouts
// and non-2xx statuses all surface as errors; the gateway decides what to do
// with them.
func (c *Client) Recognize(ctx context.Context, imageB64 string) (Result, error) {
	if imageB64 == "" {
		return Result{}, fmt.Errorf("image data required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"image": imageB64})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("recognizer error %s: %s", resp.Status, string(respBody))
	}

	var out struct {
		Recognized bool    `json:"recognized"`
		UserID     string  `json:"user_id"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("failed to decode recognizer response: %w", err)
	}
	if !out.Recognized {
		return Result{}, nil
	}
	return Result{
		Recognized: true,
		UserID:     out.UserID,
		Confidence: int(math.Round(out.Confidence)),
	}, nil
}

// Train submits enrollment images for a user. The backend's success payload
// is arbitrary, so only the status code is inspected.
func (c *Client) Train(ctx context.Context, userID string, images []string, userInfo map[string]any) error {
	payload := map[string]any{
		"user_id": userID,
		"images":  images,
	}
	if userInfo != nil {
		payload["user_info"] = userInfo
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/train", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("recognizer error %s: %s", resp.Status, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
