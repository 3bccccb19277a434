// Package narrative generates a human-readable summary of a finished report
// via an OpenAI-compatible chat completion endpoint (Ollama or similar).
// Summaries are purely additive: any failure leaves the report without a
// Summary field and nothing else changes.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medsafe/medsafe-api/breaker"
	"github.com/medsafe/medsafe-api/entities"
	"github.com/medsafe/medsafe-api/metrics"
)

// ErrUnavailable wraps every transport-level failure of the narrative service.
var ErrUnavailable = errors.New("narrative service unavailable")

const systemPrompt = "You are a clinical pharmacist assistant. Summarize the drug safety " +
	"analysis below in plain language for a patient, in at most four sentences. " +
	"State the risk level, the most important finding and the main recommendation. " +
	"Do not invent findings that are not in the analysis."

// Client calls the narrative generation service. Safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *breaker.Breaker
}

// New creates a narrative client bound to one model.
func New(baseURL, model string, timeout time.Duration, b *breaker.Breaker) *Client {
	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    b,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize produces a short narrative for the report.
func (c *Client) Summarize(ctx context.Context, report *entities.Report) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		metrics.ExternalCallsTotal.WithLabelValues("narrative", "rejected").Inc()
		metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	summary, err := c.summarize(ctx, report)
	if err != nil {
		c.breaker.Failure()
		metrics.ExternalCallsTotal.WithLabelValues("narrative", "failure").Inc()
		metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
		return "", err
	}

	c.breaker.Success()
	metrics.ExternalCallsTotal.WithLabelValues("narrative", "success").Inc()
	metrics.SetBreakerState(c.breaker.Name(), string(c.breaker.State()))
	return summary, nil
}

func (c *Client) summarize(ctx context.Context, report *entities.Report) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: reportDigest(report)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode narrative request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: malformed response: %w", ErrUnavailable, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	summary := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: blank completion", ErrUnavailable)
	}
	return summary, nil
}

// reportDigest flattens the report into the prompt text. Only verdict-level
// facts go in; raw patient identifiers never leave the process.
func reportDigest(report *entities.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Medication: %s\nRisk level: %s\n", report.Medication, report.Verdict.Level)

	if len(report.Verdict.Interactions) > 0 {
		b.WriteString("Interactions:\n")
		for _, i := range report.Verdict.Interactions {
			fmt.Fprintf(&b, "- %s + %s (%s): %s\n", i.DrugA, i.DrugB, i.Severity, i.Description)
		}
	}
	if len(report.Verdict.Contraindications) > 0 {
		b.WriteString("Contraindications:\n")
		for _, c := range report.Verdict.Contraindications {
			fmt.Fprintf(&b, "- %s (%s): %s\n", c.Type, c.Severity, c.Description)
		}
	}
	if len(report.Verdict.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, r := range report.Verdict.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r.Text)
		}
	}

	return b.String()
}
