package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"voice/internal/asset"
	"voice/internal/ledger"
	"voice/internal/model"
	"voice/internal/service"
)

type Handler struct {
	svc service.Voice
}

func NewHandler(svc service.Voice) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /tenants", h.CreateTenant)
	mux.HandleFunc("DELETE /tenants", h.DeleteTenant)
	mux.HandleFunc("GET /tenants", h.ListTenants)
	mux.HandleFunc("POST /accounts", h.Open)
	mux.HandleFunc("DELETE /accounts", h.Close)
	mux.HandleFunc("GET /accounts", h.ListAccounts)
	mux.HandleFunc("POST /issue", h.Issue)
	mux.HandleFunc("POST /transfer", h.Transfer)
	mux.HandleFunc("POST /decay", h.Decay)
	mux.HandleFunc("POST /voicereset", h.VoiceReset)
	mux.HandleFunc("POST /reset", h.Reset)
	mux.HandleFunc("GET /supply", h.Supply)
	mux.HandleFunc("GET /balance", h.Balance)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	maxSupply, err := asset.Parse(req.MaxSupply)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), req.Caller, req.Tenant, req.Issuer, maxSupply, req.DecayPeriod, req.DecayRateX10M); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if err := h.svc.Del(r.Context(), req.Caller, req.Tenant, sym); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req model.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if err := h.svc.Open(r.Context(), req.Caller, req.Tenant, req.Owner, sym, req.RamPayer); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"status": "open"})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	req, sym, ok := h.decodeAccountReq(w, r)
	if !ok {
		return
	}
	if err := h.svc.Close(r.Context(), req.Caller, req.Tenant, req.Owner, sym); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req model.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	quantity, err := asset.Parse(req.Quantity)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if err := h.svc.Issue(r.Context(), req.Caller, req.Tenant, req.To, quantity, req.Memo); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	quantity, err := asset.Parse(req.Quantity)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if err := h.svc.Transfer(r.Context(), req.Caller, req.Tenant, req.From, req.To, quantity, req.Memo); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) Decay(w http.ResponseWriter, r *http.Request) {
	req, sym, ok := h.decodeAccountReq(w, r)
	if !ok {
		return
	}
	if err := h.svc.Decay(r.Context(), req.Tenant, req.Owner, sym); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) VoiceReset(w http.ResponseWriter, r *http.Request) {
	req, sym, ok := h.decodeAccountReq(w, r)
	if !ok {
		return
	}
	if err := h.svc.VoiceReset(r.Context(), req.Caller, req.Tenant, req.Owner, sym); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	req, sym, ok := h.decodeAccountReq(w, r)
	if !ok {
		return
	}
	if err := h.svc.Reset(r.Context(), req.Caller, req.Tenant, req.Owner, sym); err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) Supply(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")
	symbol := r.URL.Query().Get("symbol")
	if tenant == "" || symbol == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	supply, err := h.svc.Supply(r.Context(), tenant, symbol)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"supply": supply.String()})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")
	owner := r.URL.Query().Get("owner")
	symbol := r.URL.Query().Get("symbol")
	if tenant == "" || owner == "" || symbol == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	balance, err := h.svc.Balance(r.Context(), tenant, owner, symbol)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	tenants, err := h.svc.Tenants(r.Context(), symbol)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	out := make([]map[string]any, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, map[string]any{
			"tenant":                t.Tenant,
			"issuer":                t.Issuer,
			"supply":                t.Supply.String(),
			"max_supply":            t.MaxSupply.String(),
			"decay_period":          t.DecayPeriod,
			"decay_per_period_x10m": t.DecayRateX10M,
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	accounts, err := h.svc.Accounts(r.Context(), owner)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	out := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, map[string]any{
			"tenant":            a.Tenant,
			"owner":             a.Owner,
			"balance":           a.Balance.String(),
			"last_decay_period": a.LastDecayPeriod,
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) decodeAccountReq(w http.ResponseWriter, r *http.Request) (model.AccountRequest, asset.Symbol, bool) {
	var req model.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return req, asset.Symbol{}, false
	}
	sym, err := asset.ParseSymbol(req.Symbol)
	if err != nil {
		h.respondFailure(w, err)
		return req, asset.Symbol{}, false
	}
	return req, sym, true
}

// respondFailure maps the ledger error taxonomy onto HTTP statuses.
func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	h.respondError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnknownTenant), errors.Is(err, ledger.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrTenantExists):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, asset.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrSupplyCapExceeded),
		errors.Is(err, ledger.ErrSupplyUnderflow),
		errors.Is(err, ledger.ErrNonZeroBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, asset.ErrMalformedAmount),
		errors.Is(err, asset.ErrMismatchedAsset),
		errors.Is(err, ledger.ErrInvalidSupplyCap),
		errors.Is(err, ledger.ErrInvalidDecayParams),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrMemoTooLong):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
