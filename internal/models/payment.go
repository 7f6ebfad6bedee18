package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single payment event. PaymentID is the remote transaction id.
type Payment struct {
	PaymentID string          `json:"payment_id"`
	CreditID  string          `json:"credit_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidOn    *time.Time      `json:"paid_on,omitempty"`
	PostedOn  *time.Time      `json:"posted_on,omitempty"`
	Method    string          `json:"method,omitempty"`
	Notes     string          `json:"notes,omitempty"`

	ExportStatus ExportStatus `json:"export_status"`
	Hash         string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (p Payment) Fingerprint() string {
	p.ExportStatus, p.Hash = "", ""
	p.CreatedAt, p.UpdatedAt = time.Time{}, time.Time{}
	return fingerprint(p)
}
