package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice/internal/asset"
	"voice/internal/ledger"
)

// mockVoice records the last call and returns canned results.
type mockVoice struct {
	err error

	transferCalled bool
	caller, from   string
	quantity       asset.Amount

	balance asset.Amount
}

func (m *mockVoice) Create(ctx context.Context, caller, tenant, issuer string, maxSupply asset.Amount, decayPeriod, decayRateX10M int64) error {
	return m.err
}
func (m *mockVoice) Open(ctx context.Context, caller, tenant, owner string, sym asset.Symbol, ramPayer string) error {
	return m.err
}
func (m *mockVoice) Issue(ctx context.Context, caller, tenant, to string, quantity asset.Amount, memo string) error {
	return m.err
}
func (m *mockVoice) Transfer(ctx context.Context, caller, tenant, from, to string, quantity asset.Amount, memo string) error {
	m.transferCalled = true
	m.caller, m.from, m.quantity = caller, from, quantity
	return m.err
}
func (m *mockVoice) Decay(ctx context.Context, tenant, owner string, sym asset.Symbol) error {
	return m.err
}
func (m *mockVoice) VoiceReset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	return m.err
}
func (m *mockVoice) Reset(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	return m.err
}
func (m *mockVoice) Close(ctx context.Context, caller, tenant, owner string, sym asset.Symbol) error {
	return m.err
}
func (m *mockVoice) Del(ctx context.Context, caller, tenant string, sym asset.Symbol) error {
	return m.err
}
func (m *mockVoice) Supply(ctx context.Context, tenant, symbol string) (asset.Amount, error) {
	return m.balance, m.err
}
func (m *mockVoice) Balance(ctx context.Context, tenant, owner, symbol string) (asset.Amount, error) {
	return m.balance, m.err
}
func (m *mockVoice) Tenants(ctx context.Context, symbol string) ([]ledger.Tenant, error) {
	return nil, m.err
}
func (m *mockVoice) Accounts(ctx context.Context, owner string) ([]ledger.Account, error) {
	return nil, m.err
}

func serve(svc *mockVoice, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTransferDecodesAndDelegates(t *testing.T) {
	svc := &mockVoice{}
	rec := serve(svc, "POST", "/transfer",
		`{"caller":"alice","tenant":"foo","from":"alice","to":"bob","quantity":"10.00 HVOICE","memo":"hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.transferCalled {
		t.Fatal("expected Transfer to be called")
	}
	if svc.caller != "alice" || svc.from != "alice" {
		t.Errorf("caller/from not threaded: %q %q", svc.caller, svc.from)
	}
	if svc.quantity.Value != 1000 || svc.quantity.Symbol.Code != "HVOICE" {
		t.Errorf("quantity not parsed: %+v", svc.quantity)
	}
}

func TestTransferRejectsMalformedQuantity(t *testing.T) {
	svc := &mockVoice{}
	rec := serve(svc, "POST", "/transfer",
		`{"caller":"alice","tenant":"foo","from":"alice","to":"bob","quantity":"ten HVOICE"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.transferCalled {
		t.Fatal("service must not be reached with a malformed quantity")
	}
}

func TestBalanceQuery(t *testing.T) {
	svc := &mockVoice{balance: asset.MustParse("160.00 HVOICE")}
	rec := serve(svc, "GET", "/balance?tenant=foo&owner=user2&symbol=HVOICE", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "160.00 HVOICE") {
		t.Errorf("balance missing from body: %s", rec.Body.String())
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ledger.ErrUnknownTenant, http.StatusNotFound},
		{ledger.ErrUnknownAccount, http.StatusNotFound},
		{ledger.ErrTenantExists, http.StatusConflict},
		{ledger.ErrUnauthorized, http.StatusForbidden},
		{asset.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{ledger.ErrSupplyCapExceeded, http.StatusUnprocessableEntity},
		{asset.ErrMismatchedAsset, http.StatusBadRequest},
		{ledger.ErrInvalidDecayParams, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Errorf("statusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBalanceMissingParams(t *testing.T) {
	rec := serve(&mockVoice{}, "GET", "/balance?tenant=foo", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
