package httpstore_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
	"tutorialpub/internal/storage/httpstore"
)

func TestNewRequiresURL(t *testing.T) {
	if _, err := httpstore.New("  ", "app"); err == nil {
		t.Fatal("expected error when url missing")
	}
}

func TestUploadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tx" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer wallet-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Object-Key"); got != "solana-101/index.md" {
			t.Errorf("unexpected object key %q", got)
		}
		if got := r.Header.Get("X-App-Name"); got != "tutorialpub" {
			t.Errorf("unexpected app name %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "text/markdown; charset=utf-8" {
			t.Errorf("unexpected content type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "# Hello" {
			t.Errorf("unexpected body %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tx-abc"}`))
	}))
	t.Cleanup(server.Close)

	client, err := httpstore.New(server.URL+"/", "tutorialpub")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ref, err := client.Upload(context.Background(), "solana-101/index.md", []byte("# Hello"), storage.Credentials{Wallet: "wallet-key"})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if ref != "tx-abc" {
		t.Fatalf("unexpected ref %q", ref)
	}
}

func TestUploadClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		class  error
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrAuth},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient},
		{"server error", http.StatusBadGateway, services.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			client, err := httpstore.New(server.URL, "")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			_, err = client.Upload(context.Background(), "k", []byte("x"), storage.Credentials{Wallet: "w"})
			if !errors.Is(err, services.ErrUpload) || !errors.Is(err, tt.class) {
				t.Fatalf("expected upload+%v, got %v", tt.class, err)
			}
		})
	}
}

func TestUploadRequiresWallet(t *testing.T) {
	client, err := httpstore.New("https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Upload(context.Background(), "k", []byte("x"), storage.Credentials{})
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestUploadRejectsEmptyID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":""}`))
	}))
	t.Cleanup(server.Close)

	client, err := httpstore.New(server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Upload(context.Background(), "k", []byte("x"), storage.Credentials{Wallet: "w"}); err == nil {
		t.Fatal("expected error for empty transaction id")
	}
}
