package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sablehq/eventq/internal/queue"
)

// webhookPayload is the payload shape for webhook.* events: the handler
// delivers the body to the target URL and the queue's retry machinery
// covers transient delivery failures.
type webhookPayload struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

type webhookResult struct {
	StatusCode  int    `json:"status_code"`
	DeliveredAt string `json:"delivered_at"`
}

var webhookClient = &http.Client{Timeout: 30 * time.Second}

// registerBuiltinHandlers installs the handlers the standalone daemon ships
// with. Applications embedding the queue register their own instead.
func registerBuiltinHandlers(r *queue.Registry) error {
	return queue.Register(r, "webhook.*", handleWebhook)
}

func handleWebhook(ctx context.Context, p webhookPayload, rep *queue.Reporter) (webhookResult, error) {
	if p.URL == "" {
		return webhookResult{}, fmt.Errorf("webhook payload missing url")
	}
	method := p.Method
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	if p.Body != nil {
		data, err := json.Marshal(p.Body)
		if err != nil {
			return webhookResult{}, fmt.Errorf("marshaling webhook body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.URL, bodyReader)
	if err != nil {
		return webhookResult{}, fmt.Errorf("building webhook request: %w", err)
	}
	if p.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	if err := rep.Update(ctx, 10); err != nil {
		return webhookResult{}, err
	}

	resp, err := webhookClient.Do(req)
	if err != nil {
		return webhookResult{}, fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return webhookResult{}, fmt.Errorf("webhook target returned %d", resp.StatusCode)
	}

	return webhookResult{
		StatusCode:  resp.StatusCode,
		DeliveredAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
