package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"attendsync/internal/app/client/config"
	"attendsync/internal/domain/attendance"
)

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "Attendsync-Client/1.0",
	}
}

// SetToken sets the bearer token used on authenticated calls.
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck verifies the server is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}
	return nil
}

type bulkSyncResponse struct {
	Status  string                  `json:"status"`
	Error   string                  `json:"error,omitempty"`
	Results []attendance.BulkResult `json:"results"`
}

// BulkSync submits a batch of queued marks and returns the per-record
// outcomes in submission order.
func (h *httpClient) BulkSync(ctx context.Context, records []attendance.BulkRecord) ([]attendance.BulkResult, error) {
	req := struct {
		Records []attendance.BulkRecord `json:"records"`
	}{Records: records}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/attendance/bulk-sync", req)
	if err != nil {
		return nil, err
	}

	var result bulkSyncResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Status == "Error" {
		return nil, fmt.Errorf("server error: %s", result.Error)
	}

	return result.Results, nil
}

type activeSessionResponse struct {
	Status string                    `json:"status"`
	Error  string                    `json:"error,omitempty"`
	Data   *attendance.SessionRoster `json:"data"`
}

// ActiveSession fetches the caller's current session with the roster. Returns
// nil when no session is inside the capture window.
func (h *httpClient) ActiveSession(ctx context.Context) (*attendance.SessionRoster, error) {
	resp, err := h.doRequest(ctx, "GET", "/api/v1/faculty/session/active", nil)
	if err != nil {
		return nil, err
	}

	var result activeSessionResponse
	if err := h.parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Status == "Error" {
		return nil, fmt.Errorf("server error: %s", result.Error)
	}

	return result.Data, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("response received",
		"status", resp.StatusCode,
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
