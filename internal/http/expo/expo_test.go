package expo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient("")
	c.BaseURL = srv.URL
	c.Client = srv.Client()
	return c, srv
}

func TestSendBatchMapsTickets(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var batch []pushMessage
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(batch) != 1 || len(batch[0].To) != 3 {
			t.Fatalf("unexpected batch shape: %+v", batch)
		}
		json.NewEncoder(w).Encode(pushResponse{Data: []pushTicket{
			{Status: "ok"},
			{Status: "error", Details: struct {
				Error string `json:"error,omitempty"`
			}{Error: "DeviceNotRegistered"}},
			{Status: "ok"},
		}})
	})
	defer srv.Close()

	result, err := c.SendBatch(context.Background(), []string{"a", "b", "c"}, "title", "body", nil)
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if result.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", result.SuccessCount)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(result.Failures))
	}
	if result.Failures[0].Token != "b" || result.Failures[0].Reason != "DeviceNotRegistered" {
		t.Errorf("unexpected failure: %+v", result.Failures[0])
	}
}

func TestSendBatchSingleTicketCoversAllTokens(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pushResponse{Data: []pushTicket{{Status: "ok"}}})
	})
	defer srv.Close()

	result, err := c.SendBatch(context.Background(), []string{"a", "b"}, "t", "b", nil)
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if result.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", result.SuccessCount)
	}
}

func TestSendBatchRejectsOversizedBatch(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("oversized batch must not reach the wire")
	})
	defer srv.Close()

	tokens := make([]string, maxBatchSize+1)
	for i := range tokens {
		tokens[i] = "tok"
	}
	if _, err := c.SendBatch(context.Background(), tokens, "t", "b", nil); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestSendBatchEmptyIsNoop(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("empty batch must not reach the wire")
	})
	defer srv.Close()

	result, err := c.SendBatch(context.Background(), nil, "t", "b", nil)
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if result.SuccessCount != 0 || len(result.Failures) != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
}
