package verifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darmiel/tokenizer/internal/core"
)

func restRequest() core.VerifyRequest {
	return core.VerifyRequest{
		Credentials:          core.Credentials{Username: "alice", Password: "secret"},
		EncryptedCredentials: "ENC",
		ConsumerID:           "C1",
		FunctionalID:         "F1",
		TransactionID:        "T1",
	}
}

func newTestREST(t *testing.T, url string, timeout time.Duration) *RESTVerifier {
	t.Helper()
	v, err := NewREST(RESTConfig{URL: url, Application: "tokenizer", Timeout: timeout})
	if err != nil {
		t.Fatalf("NewREST() error = %v", err)
	}
	return v
}

func TestREST_HeaderContract(t *testing.T) {
	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := newTestREST(t, srv.URL, time.Second)
	identity, err := v.Verify(context.Background(), restRequest())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !identity.Verified || identity.Subject != "alice" || identity.Source != RESTType {
		t.Errorf("Verify() = %+v", identity)
	}

	if got.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", got.Method)
	}
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
	want := map[string]string{
		HeaderCredentials:   "ENC",
		HeaderApplication:   "tokenizer",
		HeaderConsumerID:    "C1",
		HeaderFunctionalID:  "F1",
		HeaderTransactionID: "T1",
	}
	for name, value := range want {
		if h := got.Header.Get(name); h != value {
			t.Errorf("header %s = %q, want %q", name, h, value)
		}
	}
	if got.Header.Get("User-Agent") == "" {
		t.Error("User-Agent is empty")
	}
}

func TestREST_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantVerified bool
		wantKind     core.ErrorKind
		wantErr      bool
	}{
		{name: "OK", status: http.StatusOK, wantVerified: true},
		{name: "Forbidden", status: http.StatusForbidden},
		{name: "Unauthorized", status: http.StatusUnauthorized},
		{name: "Not Found", status: http.StatusNotFound},
		{name: "Internal Server Error", status: http.StatusInternalServerError},
		{name: "Bad Gateway", status: http.StatusBadGateway, wantErr: true, wantKind: core.KindNetwork},
		{name: "Service Unavailable", status: http.StatusServiceUnavailable, wantErr: true, wantKind: core.KindNetwork},
		{name: "Gateway Timeout", status: http.StatusGatewayTimeout, wantErr: true, wantKind: core.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			identity, err := newTestREST(t, srv.URL, time.Second).Verify(context.Background(), restRequest())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if k := core.KindOf(err); k != tt.wantKind {
					t.Errorf("KindOf() = %v, want %v", k, tt.wantKind)
				}
				return
			}
			if identity.Verified != tt.wantVerified {
				t.Errorf("Verified = %v, want %v", identity.Verified, tt.wantVerified)
			}
		})
	}
}

func TestREST_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestREST(t, url, time.Second).Verify(context.Background(), restRequest())
	if err == nil {
		t.Fatal("Verify() expected error")
	}
	if k := core.KindOf(err); k != core.KindNetwork {
		t.Errorf("KindOf() = %v, want network", k)
	}
}

func TestREST_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := newTestREST(t, srv.URL, 5*time.Second).Verify(ctx, restRequest())
	if err == nil {
		t.Fatal("Verify() expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Verify() error = %v, want context.Canceled in chain", err)
	}
	if k := core.KindOf(err); k != core.KindNetwork {
		t.Errorf("KindOf() = %v, want network", k)
	}
}

func TestREST_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestREST(t, srv.URL, 50*time.Millisecond).Verify(context.Background(), restRequest())
	if err == nil {
		t.Fatal("Verify() expected error")
	}
	if k := core.KindOf(err); k != core.KindNetwork {
		t.Errorf("KindOf() = %v, want network", k)
	}
}

func TestNewREST_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.org", "not a url", "http://"} {
		if _, err := NewREST(RESTConfig{URL: u}); err == nil {
			t.Errorf("NewREST(%q) expected error", u)
		}
	}
}
