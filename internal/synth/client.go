// Package synth adapts the external neural TTS runtime to core.Synthesizer.
//
// The runtime is a standalone HTTP service that loads the model once and
// answers speech requests with WAV audio. This package never loads a model
// itself; it only speaks the service's API contract.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// wavMediaTypes are the registered and legacy names for WAV audio.
var wavMediaTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
}

// Error messages.
const (
	errFmtUnexpectedContentType = "expected audio/wav, got %q"
	errFmtServiceErrorWithCode  = "TTS service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus    = "TTS service returned non-OK status: %s, body: %s"
)

// Static errors.
var (
	ErrTextEmpty     = errors.New("text cannot be empty")
	ErrEmptyAudio    = errors.New("received empty audio data")
	ErrServiceStatus = errors.New("TTS service request failed")
	// ErrUnexpectedContentType indicates a successful response that is not WAV.
	ErrUnexpectedContentType = errors.New("unexpected content type")
)

// HTTPClient represents a client for the standalone TTS HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// Request defines the JSON payload for speech generation.
type Request struct {
	// Text contains the input text to convert to speech.
	Text string `json:"text"`

	// Speaker selects one of the model's built-in voices (e.g. "p226").
	Speaker string `json:"speaker,omitempty"`

	// Language is the target language code (e.g. "en").
	Language string `json:"language"`
}

// ErrorResponse represents a structured error response from the TTS service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates an HTTP client for the TTS service. baseURL includes
// scheme and port (e.g. "http://localhost:8000"); timeout bounds every request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a generation request and returns the raw WAV bytes.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if !isWAV(contentType) {
		return nil, fmt.Errorf("%w: "+errFmtUnexpectedContentType, ErrUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the TTS service is running and has its model
// loaded.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %s", ErrServiceStatus, resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured JSON error, falling back to the
// raw body.
func parseErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s, failed to read error body: %w", ErrServiceStatus, resp.Status, err)
	}

	var errorResp ErrorResponse

	err = json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf("%w: "+errFmtServiceErrorWithCode,
			ErrServiceStatus, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf("%w: "+errFmtServiceNonOKStatus, ErrServiceStatus, resp.Status, string(body))
}

// isWAV reports whether a Content-Type header names WAV audio. Parameters
// such as codecs are ignored.
func isWAV(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return wavMediaTypes[mediaType]
}
