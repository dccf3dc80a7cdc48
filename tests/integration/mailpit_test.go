//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// mailpitClient reads the Mailpit REST API to inspect delivered emails.
type mailpitClient struct {
	baseURL    string
	httpClient *http.Client
}

func newMailpitClient(host string, port int) *mailpitClient {
	return &mailpitClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type mailpitAddress struct {
	Address string `json:"Address"`
}

type mailpitMessage struct {
	ID      string           `json:"ID"`
	To      []mailpitAddress `json:"To"`
	Cc      []mailpitAddress `json:"Cc"`
	Bcc     []mailpitAddress `json:"Bcc"`
	Subject string           `json:"Subject"`
}

// recipients flattens To, Cc and Bcc. The sender puts subscribers on the
// envelope only, so delivered addresses land in Bcc.
func (m *mailpitMessage) recipients() []string {
	var out []string
	for _, group := range [][]mailpitAddress{m.To, m.Cc, m.Bcc} {
		for _, a := range group {
			out = append(out, a.Address)
		}
	}
	return out
}

func (c *mailpitClient) messages() ([]mailpitMessage, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get messages: status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Messages []mailpitMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return result.Messages, nil
}

// waitForMessages polls until at least count messages arrived or the timeout
// elapses.
func (c *mailpitClient) waitForMessages(count int, timeout time.Duration) ([]mailpitMessage, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msgs, err := c.messages()
		if err == nil && len(msgs) >= count {
			return msgs, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	msgs, _ := c.messages()
	return msgs, fmt.Errorf("timeout waiting for %d messages, got %d", count, len(msgs))
}
