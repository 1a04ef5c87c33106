package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/asset-minter/config"
)

const testnetGenesisHash = "SGO1GKSzyE7IEPItTxCByw9x8FmnrCDexi9/cOUJOiI="

const paramsJSON = `{
  "consensus-version": "https://github.com/algorandfoundation/specs/tree/abc",
  "fee": 0,
  "genesis-hash": "` + testnetGenesisHash + `",
  "genesis-id": "testnet-v1.0",
  "last-round": 41000000,
  "min-fee": 1000
}`

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.Testnet, srv.URL, Options{Token: "secret", Timeout: time.Second})
}

func TestSuggestedParams(t *testing.T) {
	var gotToken, gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, paramsJSON)
	})

	sp, err := c.SuggestedParams(context.Background())
	if err != nil {
		t.Fatalf("SuggestedParams() error: %v", err)
	}
	if gotPath != "/v2/transactions/params" {
		t.Errorf("path = %q", gotPath)
	}
	if gotToken != "secret" {
		t.Errorf("token header = %q", gotToken)
	}
	if sp.FirstRoundValid != 41000000 || sp.LastRoundValid != 41001000 {
		t.Errorf("validity = [%d, %d]", sp.FirstRoundValid, sp.LastRoundValid)
	}
	if sp.GenesisID != "testnet-v1.0" || sp.MinFee != 1000 || sp.Fee != 0 {
		t.Errorf("params = %+v", sp)
	}
	want, _ := base64.StdEncoding.DecodeString(testnetGenesisHash)
	if !bytes.Equal(sp.GenesisHash, want) {
		t.Errorf("genesis hash = %x", sp.GenesisHash)
	}
}

func TestSuggestedParams_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"malformed json", http.StatusOK, `{"fee": "lots"`},
		{"short genesis hash", http.StatusOK, `{"genesis-hash": "AAAA", "genesis-id": "x", "last-round": 1}`},
		{"missing genesis id", http.StatusOK, `{"genesis-hash": "` + testnetGenesisHash + `", "last-round": 1}`},
		{"server error", http.StatusServiceUnavailable, `{"message": "catching up"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			if _, err := c.SuggestedParams(context.Background()); !errors.Is(err, ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestSuggestedParams_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, paramsJSON)
	}))
	defer srv.Close()

	c := New(config.Testnet, srv.URL, Options{Timeout: 50 * time.Millisecond})
	if _, err := c.SuggestedParams(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestSuggestedParams_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.Mainnet, url, Options{Timeout: time.Second})
	if _, err := c.SuggestedParams(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestSendRawTransaction(t *testing.T) {
	var gotBody []byte
	var gotType, gotMethod string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"txId": "TXID123"}`)
	})

	id, err := c.SendRawTransaction(context.Background(), []byte{0x82, 0xa3})
	if err != nil {
		t.Fatalf("SendRawTransaction() error: %v", err)
	}
	if id != "TXID123" {
		t.Errorf("txid = %q", id)
	}
	if gotMethod != http.MethodPost || gotType != "application/x-binary" {
		t.Errorf("request = %s %s", gotMethod, gotType)
	}
	if !bytes.Equal(gotBody, []byte{0x82, 0xa3}) {
		t.Errorf("body = %x", gotBody)
	}
}

func TestSendRawTransaction_Rejected(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message": "overspend"}`)
	})

	_, err := c.SendRawTransaction(context.Background(), []byte{1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "overspend" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("a rejected transaction is not an outage")
	}
}

func TestPendingAndStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/status":
			io.WriteString(w, `{"last-round": 77, "last-version": "v40"}`)
		case "/v2/transactions/pending/ABC":
			io.WriteString(w, `{"confirmed-round": 78, "asset-index": 1234}`)
		default:
			http.NotFound(w, r)
		}
	})

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if st.LastRound != 77 || st.LastVersion != "v40" {
		t.Errorf("status = %+v", st)
	}

	info, err := c.WaitForConfirmation(context.Background(), "ABC", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForConfirmation() error: %v", err)
	}
	if !info.Confirmed() || info.AssetIndex != 1234 {
		t.Errorf("pending = %+v", info)
	}

	if _, err := c.PendingTransaction(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for unknown transaction")
	}
}

func TestResolver(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, paramsJSON)
	}))
	defer srv.Close()

	cfg := config.GatewayConfig{
		MainnetURL: "http://127.0.0.1:1",
		TestnetURL: srv.URL,
		Timeout:    time.Second,
	}
	r := NewResolver(cfg)

	if _, err := r.SuggestedParams(context.Background(), config.Testnet); err != nil {
		t.Fatalf("testnet SuggestedParams() error: %v", err)
	}
	if hits != 1 {
		t.Errorf("testnet gateway hit %d times", hits)
	}
	if _, err := r.SuggestedParams(context.Background(), "betanet"); err == nil {
		t.Error("expected error for unknown network")
	}
	c, err := r.Client(config.Mainnet)
	if err != nil || c.Network() != config.Mainnet {
		t.Errorf("Client(mainnet) = %v, %v", c, err)
	}
}
