package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// trainerClient talks to the external model training service.
type trainerClient struct {
	baseURL string
	http    *http.Client
}

func newTrainerClient(baseURL string) *trainerClient {
	if baseURL == "" || baseURL == "local" {
		baseURL = "http://127.0.0.1:8000"
	}
	return &trainerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 25 * time.Second},
	}
}

// PostDataset calls POST {baseURL}/datasets with the given batch.
func (c *trainerClient) PostDataset(ctx context.Context, in trainerDatasetReq) (*trainerDatasetResp, error) {
	if in.BatchID == "" {
		return nil, fmt.Errorf("empty batch id")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal trainer req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/datasets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trainer call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("trainer non-2xx: %s, body: %s", resp.Status, string(data))
	}

	var out trainerDatasetResp
	if len(bytes.TrimSpace(data)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode trainer resp: %w", err)
	}
	return &out, nil
}
