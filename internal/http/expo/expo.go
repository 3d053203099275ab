package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBaseURL = "https://exp.host/--/api/v2/push/send"

	// Expo caps one push request at 100 messages.
	maxBatchSize = 100
)

// Client talks to the Expo push service. It implements notify.PushProvider.
type Client struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client

	breaker *gobreaker.CircuitBreaker[*pushResponse]
}

// NewClient creates an Expo push client. accessToken may be empty for
// unauthenticated projects.
func NewClient(accessToken string) *Client {
	if accessToken == "" {
		log.Println("Warning: Expo access token is empty.")
	}

	settings := gobreaker.Settings{
		Name:    "expo-push",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		BaseURL:     defaultBaseURL,
		AccessToken: accessToken,
		Client:      &http.Client{Timeout: 15 * time.Second},
		breaker:     gobreaker.NewCircuitBreaker[*pushResponse](settings),
	}
}

func (c *Client) MaxBatchSize() int { return maxBatchSize }

type pushMessage struct {
	To    []string          `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"` // "ok" or "error"
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // e.g. "DeviceNotRegistered"
	} `json:"details,omitempty"`
}

type pushResponse struct {
	Data   []pushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// SendBatch delivers one batch of at most MaxBatchSize tokens. Individual
// ticket errors are reported per token; only transport-level problems (or an
// open breaker) surface as an error.
func (c *Client) SendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (notify.BatchResult, error) {
	var result notify.BatchResult
	if len(tokens) == 0 {
		return result, nil
	}
	if len(tokens) > maxBatchSize {
		return result, fmt.Errorf("expo batch of %d exceeds maximum %d", len(tokens), maxBatchSize)
	}

	resp, err := c.breaker.Execute(func() (*pushResponse, error) {
		return c.send(ctx, pushMessage{
			To:    tokens,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	})
	if err != nil {
		return result, err
	}

	if len(resp.Errors) > 0 {
		return result, fmt.Errorf("expo push error: %s (%s)", resp.Errors[0].Message, resp.Errors[0].Code)
	}

	// Expo returns one ticket per message. A single multi-recipient message
	// yields a single ticket covering all tokens; a per-ticket list maps
	// one-to-one onto the token list.
	if len(resp.Data) == 1 && len(tokens) > 1 {
		ticket := resp.Data[0]
		if ticket.Status == "ok" {
			result.SuccessCount = len(tokens)
		} else {
			for _, t := range tokens {
				result.Failures = append(result.Failures, notify.TokenError{Token: t, Reason: ticketReason(ticket)})
			}
		}
		return result, nil
	}

	for i, ticket := range resp.Data {
		if i >= len(tokens) {
			break
		}
		if ticket.Status == "ok" {
			result.SuccessCount++
			continue
		}
		result.Failures = append(result.Failures, notify.TokenError{Token: tokens[i], Reason: ticketReason(ticket)})
	}

	return result, nil
}

func ticketReason(t pushTicket) string {
	if t.Details.Error != "" {
		return t.Details.Error
	}
	if t.Message != "" {
		return t.Message
	}
	return "unknown push error"
}

func (c *Client) send(ctx context.Context, msg pushMessage) (*pushResponse, error) {
	payload, err := json.Marshal([]pushMessage{msg})
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute push request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var pushResp pushResponse
	if err := json.Unmarshal(bodyBytes, &pushResp); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	return &pushResp, nil
}
