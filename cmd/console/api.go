package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(client *http.Client, baseURL string) *apiClient {
	return &apiClient{client: client, baseURL: baseURL}
}

func (a *apiClient) healthy() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	// Degraded still answers; the console only needs the API process alive.
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

// think posts a movement request and returns the decision plus the raw
// response body (for the clipboard).
func (a *apiClient) think(req *npc.MovementRequest) (*npc.MovementDecision, []byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+"/v1/npc/think", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, nil, fmt.Errorf("think failed: %s", errResp.Error)
		}
		return nil, nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var decision npc.MovementDecision
	if err := json.Unmarshal(body, &decision); err != nil {
		return nil, nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	return &decision, body, nil
}

func (a *apiClient) getMemory(npcID string) (*npc.MemoryRecord, error) {
	resp, err := a.client.Get(fmt.Sprintf("%s/v1/admin/npc/%s/memory", a.baseURL, npcID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var record npc.MemoryRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to parse memory record: %w", err)
	}
	return &record, nil
}

func (a *apiClient) clearMemory(npcID string) error {
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/v1/admin/npc/%s/memory", a.baseURL, npcID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
