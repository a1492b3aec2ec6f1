package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type AssemblyAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	pollDelay  time.Duration
}

func NewAssemblyAIClient(apiKey string, log *logger.Logger) *AssemblyAIClient {
	return &AssemblyAIClient{
		apiKey:     apiKey,
		baseURL:    "https://api.assemblyai.com/v2",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("adapter", "AssemblyAIClient"),
		pollDelay:  3 * time.Second,
	}
}

type transcriptSubmitRequest struct {
	AudioURL          string   `json:"audio_url"`
	AudioStartFrom    *int     `json:"audio_start_from,omitempty"`
	AudioEndAt        *int     `json:"audio_end_at,omitempty"`
}

type transcriptPollResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL string, start, end *float64, model string) (string, map[string]any, error) {
	submitReq := transcriptSubmitRequest{AudioURL: audioURL}
	if start != nil {
		ms := int(*start * 1000)
		submitReq.AudioStartFrom = &ms
	}
	if end != nil {
		ms := int(*end * 1000)
		submitReq.AudioEndAt = &ms
	}

	var transcriptID string
	err := adapters.WithRetry(ctx, c.log, "assemblyai.submit", func(ctx context.Context) error {
		body, err := json.Marshal(submitReq)
		if err != nil {
			return err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == 429 {
			return &adapters.TranscribeError{Signal: adapters.TranscriptSignalRateLimited, Err: fmt.Errorf("assemblyai rate limited")}
		}
		if resp.StatusCode >= 400 {
			return &adapters.BadRequest{Err: fmt.Errorf("assemblyai submit: status %d: %s", resp.StatusCode, string(respBody))}
		}
		var parsed transcriptPollResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return err
		}
		transcriptID = parsed.ID
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-time.After(c.pollDelay):
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+transcriptID, nil)
		if err != nil {
			return "", nil, err
		}
		httpReq.Header.Set("Authorization", c.apiKey)
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return "", nil, &adapters.TranscribeError{Signal: adapters.TranscriptSignalTransient, Err: err}
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", nil, err
		}

		var parsed transcriptPollResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", nil, err
		}

		switch parsed.Status {
		case "completed":
			return parsed.Text, map[string]any{"provider": "assembly", "transcript_id": parsed.ID}, nil
		case "error":
			return "", nil, fmt.Errorf("assemblyai: %s", parsed.Error)
		}
	}
}
