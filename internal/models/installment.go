package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is the current balance snapshot of a credit. There is at most
// one per credit.
type Installment struct {
	CreditID        string          `json:"credit_id"`
	InterestBalance decimal.Decimal `json:"interest_balance"`
	ArrearsBalance  decimal.Decimal `json:"arrears_balance"`
	OtherBalance    decimal.Decimal `json:"other_balance"`
	FeeBalance      decimal.Decimal `json:"fee_balance"`
	OverdueBalance  decimal.Decimal `json:"overdue_balance"`
	DueToday        decimal.Decimal `json:"due_today"`
	SnapshotAt      *time.Time      `json:"snapshot_at,omitempty"`
	RegisteredAt    *time.Time      `json:"registered_at,omitempty"`

	// SourceStatus tracks the push back to the Source System.
	SourceStatus ExportStatus `json:"source_status"`
	Hash         string       `json:"-"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Total sums the five balance components.
func (i Installment) Total() decimal.Decimal {
	return decimal.Sum(i.InterestBalance, i.ArrearsBalance, i.OtherBalance, i.FeeBalance, i.OverdueBalance)
}

func (i Installment) Fingerprint() string {
	i.SourceStatus, i.Hash = "", ""
	i.UpdatedAt = time.Time{}
	return fingerprint(i)
}
