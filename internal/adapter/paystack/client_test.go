package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "sk_test_secret", 5*time.Second, zerolog.Nop())
}

func TestCreateRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transferrecipient" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Write([]byte(`{"status":true,"data":{"recipient_code":"RCP_abc"}}`))
	})

	code, err := client.CreateRecipient(context.Background(), domain.BankAccount{
		AccountNumber: "0001112223",
		BankCode:      "058",
		AccountName:   "Ada",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "RCP_abc" {
		t.Fatalf("expected RCP_abc, got %s", code)
	}
}

func TestInitiateTransfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfer" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":true,"data":{"transfer_code":"TRF_xyz"}}`))
	})

	code, err := client.InitiateTransfer(context.Background(), "RCP_abc", 40000, "WDR_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "TRF_xyz" {
		t.Fatalf("expected TRF_xyz, got %s", code)
	}
}

func TestInitiateTransferRejected(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"insufficient balance"}`))
	})

	_, err := client.InitiateTransfer(context.Background(), "RCP_abc", 40000, "WDR_1")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a 4xx response not to be retried, got %d calls", got)
	}
}

func TestInitiateTransferRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":true,"data":{"transfer_code":"TRF_retry"}}`))
	})

	code, err := client.InitiateTransfer(context.Background(), "RCP_abc", 40000, "WDR_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "TRF_retry" {
		t.Fatalf("expected TRF_retry, got %s", code)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestStatusFalseMapsToRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"invalid bank code"}`))
	})

	_, err := client.CreateRecipient(context.Background(), domain.BankAccount{
		AccountNumber: "0001112223",
		BankCode:      "999",
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("http://localhost", "sk_test_secret", time.Second, zerolog.Nop())
	body := []byte(`{"event":"transfer.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature(body, valid) {
		t.Fatal("expected valid signature to verify")
	}
	if client.VerifySignature(body, "deadbeef") {
		t.Fatal("expected invalid signature to fail")
	}
	if client.VerifySignature([]byte("tampered"), valid) {
		t.Fatal("expected tampered body to fail")
	}
}
