package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pulseboard/eventpipe/breaker"
	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/upstream/signature"
)

/* Client for the rate-limited upstream metrics API the handlers feed.
 * Every call goes through the circuit breaker: when the upstream is
 * degraded the breaker fails fast, which the dispatcher treats as a
 * transient failure and retries via the queue's backoff.
 */

// MetricSample is one aggregated measurement pushed upstream
type MetricSample struct {
	ProjectID string    `json:"project_id"`
	Metric    string    `json:"metric"`
	Value     int64     `json:"value"`
	At        time.Time `json:"at"`
}

// Publisher pushes metric samples to the upstream API
type Publisher interface {
	Push(ctx context.Context, sample MetricSample) error
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
	secret  signature.Secret
}

// NewClient creates an upstream client. An empty baseURL disables pushes,
// which keeps local setups working without the external API.
func NewClient(baseURL string, b *breaker.Breaker) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: b,
	}
}

// UseSigningSecret enables HMAC signing of every push. Must be called
// before the first Push.
func (c *Client) UseSigningSecret(secret signature.Secret) {
	c.secret = secret
}

// Push sends a sample through the circuit breaker
func (c *Client) Push(ctx context.Context, sample MetricSample) error {
	if c.baseURL == "" {
		return nil
	}

	err := c.breaker.Do(func() error {
		return c.post(ctx, sample)
	})
	if err == breaker.ErrOpen {
		return &event.TransientError{Err: err}
	}
	return err
}

func (c *Client) post(ctx context.Context, sample MetricSample) error {
	body, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshaling sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/metrics", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if !c.secret.IsZero() {
		signedAt := time.Now()
		sig, err := signature.Sign(c.secret, sample.ProjectID, signedAt, body)
		if err != nil {
			return &event.PermanentError{Reason: "signing sample", Err: err}
		}
		req.Header.Set("X-Signature", sig)
		req.Header.Set("X-Signature-Timestamp", fmt.Sprintf("%d", signedAt.Unix()))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &event.TransientError{Err: fmt.Errorf("calling upstream: %w", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &event.TransientError{Err: fmt.Errorf("upstream returned %d", resp.StatusCode)}
	default:
		return &event.PermanentError{Reason: fmt.Sprintf("upstream rejected sample with %d", resp.StatusCode)}
	}
}

var _ Publisher = (*Client)(nil)
