// Package model holds the wire-level request shapes shared by the HTTP and
// NATS transports. Quantities and symbols travel as their canonical string
// forms ("100.00 HVOICE", "2,HVOICE") and are parsed at the edge.
package model

type CreateTenantRequest struct {
	Caller        string `json:"caller"`
	Tenant        string `json:"tenant"`
	Issuer        string `json:"issuer"`
	MaxSupply     string `json:"maximum_supply"`
	DecayPeriod   int64  `json:"decay_period"`
	DecayRateX10M int64  `json:"decay_per_period_x10m"`
}

type OpenRequest struct {
	Caller   string `json:"caller"`
	Tenant   string `json:"tenant"`
	Owner    string `json:"owner"`
	Symbol   string `json:"symbol"`
	RamPayer string `json:"ram_payer"`
}

type IssueRequest struct {
	Caller   string `json:"caller"`
	Tenant   string `json:"tenant"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

type TransferRequest struct {
	Caller   string `json:"caller"`
	Tenant   string `json:"tenant"`
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// AccountRequest covers the operations addressing a single account record:
// decay, voicereset, reset and close.
type AccountRequest struct {
	Caller string `json:"caller"`
	Tenant string `json:"tenant"`
	Owner  string `json:"owner"`
	Symbol string `json:"symbol"`
}

type DeleteTenantRequest struct {
	Caller string `json:"caller"`
	Tenant string `json:"tenant"`
	Symbol string `json:"symbol"`
}
