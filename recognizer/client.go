// Package recognizer is the HTTP client for the external document
// recognition service, which extracts a medication name from a photographed
// package or prescription. The client is advisory: every failure mode maps to
// an error the pipeline degrades around, never to a process failure.
package recognizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/metrics"
)

// ErrUnavailable wraps every transport-level failure so callers can treat
// timeouts, refusals and open circuits uniformly.
var ErrUnavailable = errors.New("recognizer unavailable")

// Client calls the recognition service. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *breaker.Breaker
}

// New creates a recognizer client. timeout bounds each Recognize call; the
// breaker opens after repeated failures so a dead service stops costing the
// full timeout on every request.
func New(baseURL string, timeout time.Duration, b *breaker.Breaker) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    b,
	}
}

type recognizeRequest struct {
	Image string `json:"image"`
}

type recognizeResponse struct {
	MedicationName string  `json:"medication_name"`
	RawText        string  `json:"raw_text"`
	Confidence     float64 `json:"confidence"`
}

// Recognize submits the image and returns the service's best guess. The
// result is advisory; a low Confidence or empty MedicationName is a valid
// outcome, not an error.
func (c *Client) Recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error) {
	if err := c.breaker.Allow(); err != nil {
		metrics.ExternalCallsTotal.WithLabelValues("recognizer", "rejected").Inc()
		metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	result, err := c.recognize(ctx, image)
	if err != nil {
		c.breaker.Failure()
		metrics.ExternalCallsTotal.WithLabelValues("recognizer", "failure").Inc()
		metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
		return nil, err
	}

	c.breaker.Success()
	metrics.ExternalCallsTotal.WithLabelValues("recognizer", "success").Inc()
	metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
	return result, nil
}

func (c *Client) recognize(ctx context.Context, image []byte) (*entities.RecognitionResult, error) {
	payload, err := json.Marshal(recognizeRequest{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrUnavailable, err)
	}

	return &entities.RecognitionResult{
		MedicationName: decoded.MedicationName,
		RawText:        decoded.RawText,
		Confidence:     decoded.Confidence,
	}, nil
}
