package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Credit struct {
	CreditID              string          `json:"credit_id"`
	ClientID              string          `json:"client_id"`
	CoDebtorID            string          `json:"co_debtor_id,omitempty"`
	LegalRepresentativeID string          `json:"legal_representative_id,omitempty"`
	CompanyKey            string          `json:"company_key,omitempty"`
	Source                string          `json:"source,omitempty"`
	Classification        string          `json:"classification,omitempty"`
	DebtType              string          `json:"debt_type,omitempty"`
	CreatedOn             *time.Time      `json:"created_on,omitempty"`
	FirstPaymentOn        *time.Time      `json:"first_payment_on,omitempty"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	Periodicity           string          `json:"periodicity,omitempty"`
	InstallmentCount      int             `json:"installment_count"`
	Notes                 string          `json:"notes,omitempty"`
	IntermediaryID        string          `json:"intermediary_id,omitempty"`
	Institution           string          `json:"institution,omitempty"`
	Program               string          `json:"program,omitempty"`
	ProgramPeriod         string          `json:"program_period,omitempty"`
	PenaltyAmount         decimal.Decimal `json:"penalty_amount"`
	PenaltyType           string          `json:"penalty_type,omitempty"`
	PenaltyPeriod         string          `json:"penalty_period,omitempty"`
	PromissoryNote        string          `json:"promissory_note,omitempty"`

	ExportStatus ExportStatus `json:"export_status"`
	Hash         string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (c Credit) Fingerprint() string {
	c.ExportStatus, c.Hash = "", ""
	c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
	return fingerprint(c)
}
