package transform

import (
	"encoding/json"
	"fmt"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/jsonx"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/shopspring/decimal"
)

const defaultPaymentMethod = "Transferencia"

type sourcePayment struct {
	TransactionID jsonx.Text   `json:"idtransaccion"`
	CreditID      jsonx.Text   `json:"idcredito"`
	PaidOn        jsonx.Text   `json:"fechapago"`
	PostedOn      jsonx.Text   `json:"fechaasiento"`
	Method        jsonx.Text   `json:"formapago"`
	Amount        jsonx.Amount `json:"valor"`
	Notes         jsonx.Text   `json:"obs"`
}

// PaymentFromSource maps a Source payment. Payments made before the cutoff
// return common.ErrBeforeCutoff.
func (t *Transformer) PaymentFromSource(raw json.RawMessage) (*models.Payment, error) {
	var s sourcePayment
	if err := decode(raw, &s); err != nil {
		return nil, err
	}
	if err := required(
		field("idtransaccion", s.TransactionID.String()),
		field("idcredito", s.CreditID.String()),
	); err != nil {
		return nil, err
	}

	p := &models.Payment{
		PaymentID: s.TransactionID.String(),
		CreditID:  s.CreditID.String(),
		Amount:    s.Amount.Decimal,
		PaidOn:    ParseDate(s.PaidOn.String()),
		PostedOn:  ParseDate(s.PostedOn.String()),
		Method:    s.Method.String(),
		Notes:     s.Notes.String(),
	}
	if p.PaidOn != nil && !t.opts.PaymentCutoff.IsZero() && p.PaidOn.Before(t.opts.PaymentCutoff) {
		return nil, fmt.Errorf("%w: paid %s", common.ErrBeforeCutoff, p.PaidOn.Format(DateLayout))
	}
	return p, nil
}

type TargetPayments struct {
	Payments []TargetPayment `json:"abonos"`
}

type TargetPayment struct {
	Transaction string                `json:"transaccion"`
	CreditID    string                `json:"consecutivocredito"`
	DocType     string                `json:"tipodoc"`
	PaidOn      *string               `json:"fechapago"`
	PostedOn    *string               `json:"fechadeasiento"`
	Total       decimal.Decimal       `json:"valortotal"`
	Kind        string                `json:"tipoabono"`
	Note        *string               `json:"observacion"`
	Details     []TargetPaymentDetail `json:"detallepago"`
}

type TargetPaymentDetail struct {
	Amount   decimal.Decimal `json:"valor"`
	Location string          `json:"ubicacion"`
	Method   string          `json:"formapago"`
}

func (t *Transformer) PaymentToTarget(p *models.Payment) (*TargetPayments, error) {
	if err := required(
		field("payment_id", p.PaymentID),
		field("credit_id", p.CreditID),
	); err != nil {
		return nil, err
	}

	posted := p.PostedOn
	if posted == nil {
		posted = p.PaidOn
	}
	return &TargetPayments{Payments: []TargetPayment{{
		Transaction: p.PaymentID,
		CreditID:    p.CreditID,
		DocType:     "credito",
		PaidOn:      FormatDate(p.PaidOn),
		PostedOn:    FormatDate(posted),
		Total:       p.Amount,
		Kind:        "ADELANTAR",
		Note:        opt(p.Notes),
		Details: []TargetPaymentDetail{{
			Amount:   p.Amount,
			Location: "UBI_EXTERNA",
			Method:   or(p.Method, defaultPaymentMethod),
		}},
	}}}, nil
}
