// Package transcribe implements the Transcriber interface against the
// OpenAI Whisper and AssemblyAI REST APIs.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type OpenAIWhisperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewOpenAIWhisperClient(apiKey string, log *logger.Logger) *OpenAIWhisperClient {
	return &OpenAIWhisperClient{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		log:        log.With("adapter", "OpenAIWhisperClient"),
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

// Transcribe downloads the audio at audioURL and submits it to Whisper.
// start/end are accepted for interface parity with the windowed contract;
// Whisper has no native window parameter, so windowing is the caller's
// responsibility (pre-trimming the asset) when a precise window matters.
func (c *OpenAIWhisperClient) Transcribe(ctx context.Context, audioURL string, start, end *float64, model string) (string, map[string]any, error) {
	if model == "" {
		model = "whisper-1"
	}

	audioReq, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", nil, err
	}
	audioResp, err := c.httpClient.Do(audioReq)
	if err != nil {
		return "", nil, &adapters.TranscribeError{Signal: adapters.TranscriptSignalTransient, Err: err}
	}
	defer audioResp.Body.Close()
	if audioResp.StatusCode >= 400 {
		return "", nil, &adapters.TranscribeError{Signal: adapters.TranscriptSignalTransient, Err: fmt.Errorf("fetch audio: status %d", audioResp.StatusCode)}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(part, audioResp.Body); err != nil {
		return "", nil, err
	}
	_ = writer.WriteField("model", model)
	if err := writer.Close(); err != nil {
		return "", nil, err
	}

	var result string
	err = adapters.WithRetry(ctx, c.log, "openai.whisper", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bytes.NewReader(body.Bytes()))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", writer.FormDataContentType())
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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
			return &adapters.TranscribeError{Signal: adapters.TranscriptSignalRateLimited, Err: fmt.Errorf("whisper rate limited")}
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("whisper: status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return &adapters.BadRequest{Err: fmt.Errorf("whisper: status %d: %s", resp.StatusCode, string(respBody))}
		}
		var parsed whisperResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return err
		}
		result = parsed.Text
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	metadata := map[string]any{"provider": "openai", "model": model}
	if start != nil {
		metadata["start_seconds"] = *start
	}
	if end != nil {
		metadata["end_seconds"] = *end
	}
	return result, metadata, nil
}
