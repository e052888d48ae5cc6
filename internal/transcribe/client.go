// Package transcribe turns audio into text through AssemblyAI.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AssemblyAI/assemblyai-go-sdk"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 3 * time.Second
)

// ErrTranscriptionFailed is returned when the job finishes with status error.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Client uploads audio, submits a job and waits for its transcript.
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	api          *assemblyai.Client
}

// NewClient creates a client. Empty baseURL and non-positive pollInterval
// fall back to defaults.
func NewClient(apiKey, baseURL string, pollInterval time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		api: assemblyai.NewClientWithOptions(
			assemblyai.WithAPIKey(apiKey),
			assemblyai.WithBaseURL(baseURL),
			assemblyai.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
		),
	}
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Transcribe uploads audio and blocks until the transcript is ready or ctx
// ends.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	uploadURL, err := c.Upload(ctx, audio)
	if err != nil {
		return "", err
	}

	id, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	return c.Wait(ctx, id)
}

// Upload streams raw audio bytes and returns the URL the job should read.
func (c *Client) Upload(ctx context.Context, audio io.Reader) (string, error) {
	uploadURL, err := c.api.Upload(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if uploadURL == "" {
		return "", errors.New("upload: response has no upload_url")
	}
	return uploadURL, nil
}

// Submit starts a transcription job with language detection and speaker
// labels enabled.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	enabled := true
	t, err := c.api.Transcripts.SubmitFromURL(ctx, audioURL, &assemblyai.TranscriptOptionalParams{
		LanguageDetection: &enabled,
		SpeakerLabels:     &enabled,
	})
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	id := deref(t.ID)
	if id == "" {
		return "", errors.New("submit: response has no id")
	}
	return id, nil
}

// Wait polls the job every pollInterval until it completes or errors.
func (c *Client) Wait(ctx context.Context, id string) (string, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		t, err := c.api.Transcripts.Get(ctx, id)
		if err != nil {
			return "", fmt.Errorf("poll: %w", err)
		}

		switch t.Status {
		case assemblyai.TranscriptStatusCompleted:
			return deref(t.Text), nil
		case assemblyai.TranscriptStatusError:
			return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, deref(t.Error))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
