// Package mux talks to the Mux Video API: direct upload slots, upload
// status, and playback ids. Transport failures on the read paths collapse
// to sentinel "not ready" values so reconciliation can simply retry on the
// next pass.
package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	UploadStatusAssetCreated = "asset_created"
	UploadStatusError        = "error"
	UploadStatusUnknown      = "unknown"
)

type UploadSlot struct {
	UploadID string
	URL      string
}

type UploadStatus struct {
	AssetID string
	Status  string
}

type API interface {
	CreateDirectUpload(ctx context.Context, corsOrigin string) (*UploadSlot, error)
	GetUploadStatus(ctx context.Context, uploadID string) UploadStatus
	GetPlaybackID(ctx context.Context, assetID string) string
}

var _ API = (*Client)(nil)

type Client struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
}

func NewClient(baseURL, tokenID, tokenSecret string) *Client {
	return &Client{
		baseURL:     baseURL,
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type directUploadRequest struct {
	CorsOrigin       string           `json:"cors_origin"`
	NewAssetSettings newAssetSettings `json:"new_asset_settings"`
}

type newAssetSettings struct {
	PlaybackPolicy []string `json:"playback_policy"`
}

type directUploadResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

func (c *Client) CreateDirectUpload(ctx context.Context, corsOrigin string) (*UploadSlot, error) {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	body, err := json.Marshal(directUploadRequest{
		CorsOrigin:       corsOrigin,
		NewAssetSettings: newAssetSettings{PlaybackPolicy: []string{"public"}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/video/v1/uploads", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create direct upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("create direct upload: unexpected status %d", resp.StatusCode)
	}

	var out directUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &UploadSlot{UploadID: out.Data.ID, URL: out.Data.URL}, nil
}

type uploadStatusResponse struct {
	Data struct {
		AssetID string `json:"asset_id"`
		Status  string `json:"status"`
	} `json:"data"`
}

// GetUploadStatus reports the provider-side state of an upload slot. Any
// transport or decode failure is returned as UploadStatusError with no
// asset id; callers treat that the same as "not ready yet".
func (c *Client) GetUploadStatus(ctx context.Context, uploadID string) UploadStatus {
	var out uploadStatusResponse
	if err := c.getJSON(ctx, "/video/v1/uploads/"+uploadID, &out); err != nil {
		return UploadStatus{Status: UploadStatusError}
	}
	status := out.Data.Status
	if status == "" {
		status = UploadStatusUnknown
	}
	return UploadStatus{AssetID: out.Data.AssetID, Status: status}
}

type assetResponse struct {
	Data struct {
		PlaybackIDs []struct {
			ID string `json:"id"`
		} `json:"playback_ids"`
	} `json:"data"`
}

// GetPlaybackID returns the first playback id of an asset, or "" when the
// asset has none yet or the call fails.
func (c *Client) GetPlaybackID(ctx context.Context, assetID string) string {
	var out assetResponse
	if err := c.getJSON(ctx, "/video/v1/assets/"+assetID, &out); err != nil {
		return ""
	}
	if len(out.Data.PlaybackIDs) == 0 {
		return ""
	}
	return out.Data.PlaybackIDs[0].ID
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
