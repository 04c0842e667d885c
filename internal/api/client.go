// Package api uploads finished game results to the ranking server.
package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Client handles communication with the ranking server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the ranking server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// GameResult is the payload uploaded when a game finishes.
type GameResult struct {
	Progress     core.GameProgress        `json:"progress"`
	Achievements []core.AchievementRecord `json:"achievements"`
}

// UploadResult sends a gzipped JSON result of a finished game to the
// ranking server.
func (c *Client) UploadResult(result GameResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(payload); err != nil {
		return fmt.Errorf("failed to compress result: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress result: %w", err)
	}

	filename := result.Progress.GameID + ".json.gz"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Form fields
	_ = writer.WriteField("secret", c.apiKey)
	_ = writer.WriteField("filename", filename)
	_ = writer.WriteField("gameId", result.Progress.GameID)
	_ = writer.WriteField("endReason", string(result.Progress.EndReason))
	_ = writer.WriteField("score", strconv.Itoa(result.Progress.Score))

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/results/add", &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}
