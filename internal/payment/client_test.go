package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCreateIntent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("path = %q, want /v1/payment_intents", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test" {
			t.Fatalf("authorization = %q", auth)
		}

		var req IntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.AmountCents != 7500 || req.Currency != "USD" {
			t.Fatalf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Intent{
			ID:           "pi_1",
			ClientSecret: "pi_1_secret",
			Status:       "requires_payment_method",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")

	intent, err := c.CreateIntent(context.Background(), IntentRequest{
		AmountCents: 7500,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("CreateIntent error: %v", err)
	}
	if intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("client secret = %q", intent.ClientSecret)
	}
}

func TestCreateIntent_RetriesServerError(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(Intent{ID: "pi_2", ClientSecret: "pi_2_secret"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")

	intent, err := c.CreateIntent(context.Background(), IntentRequest{AmountCents: 100, Currency: "USD"})
	if err != nil {
		t.Fatalf("CreateIntent error after retry: %v", err)
	}
	if intent.ID != "pi_2" {
		t.Fatalf("intent id = %q", intent.ID)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestCreateIntent_ClientErrorNotRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad_key")

	if _, err := c.CreateIntent(context.Background(), IntentRequest{AmountCents: 100, Currency: "USD"}); err == nil {
		t.Fatalf("expected error for 401")
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCreateIntent_NotConfigured(t *testing.T) {
	var c *Client

	if _, err := c.CreateIntent(context.Background(), IntentRequest{}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
