package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docinsight-cli/internal/model"
)

const defaultTimeout = 60 * time.Second

// Client triggers the downstream automation workflow (n8n-style webhook)
// that generates and sends the conditional alert email. The workflow's
// internal logic is entirely the webhook's concern.
type Client interface {
	Trigger(ctx context.Context, req TriggerRequest) (*TriggerResponse, error)
}

// TriggerRequest is the payload POSTed to the automation webhook.
type TriggerRequest struct {
	DocumentText   string                   `json:"document_text"`
	Question       string                   `json:"question"`
	StructuredData *model.StructuredInsight `json:"structured_data"`
	RecipientEmail string                   `json:"recipient_email"`
}

// TriggerResponse is what the webhook returns after running the workflow.
type TriggerResponse struct {
	FinalAnswer string `json:"final_answer"`
	EmailBody   string `json:"email_body"`
	EmailStatus string `json:"email_status"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default 60s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	webhookURL string
	http       *http.Client
}

// NewClient creates an automation webhook client for the given URL.
func NewClient(webhookURL string, opts ...Option) Client {
	c := &httpClient{
		webhookURL: webhookURL,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "automation: marshal payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "automation: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "automation: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "automation: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("automation: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	// Misconfigured workflows respond 200 with an empty body; surface that
	// instead of returning a zero-value result.
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, eris.New("automation: webhook returned empty response")
	}

	var result TriggerResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "automation: unmarshal response")
	}

	return &result, nil
}
