package transform

import (
	"fmt"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway/target"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/shopspring/decimal"
)

// InstallmentFromTarget maps a debt simulation. due_today is the sum of the
// five balances.
func (t *Transformer) InstallmentFromTarget(creditID string, s *target.DebtSnapshot) (*models.Installment, error) {
	if s == nil || s.Closing == nil {
		return nil, invalid("credit %s: snapshot without cierre", creditID)
	}
	i := &models.Installment{
		CreditID:        creditID,
		InterestBalance: s.Closing.Interest.Decimal,
		ArrearsBalance:  s.Closing.Arrears.Decimal,
		OtherBalance:    s.Closing.Other.Decimal,
		FeeBalance:      s.Closing.Fees.Decimal,
		OverdueBalance:  s.Closing.Overdue.Decimal,
		SnapshotAt:      ParseDate(s.UpdatedAt.String()),
		RegisteredAt:    ParseDate(s.RegisteredAt.String()),
	}
	i.DueToday = i.Total()
	return i, nil
}

// ActionFromTarget maps one remote collection event. Events at or before
// the action cutoff return common.ErrBeforeCutoff.
func (t *Transformer) ActionFromTarget(r target.RemoteAction) (*models.Action, error) {
	if err := required(
		field("idgestion", r.ActionID.String()),
		field("idcredito", r.CreditID.String()),
	); err != nil {
		return nil, err
	}
	at, ok := ParseTime(r.ActionAt.String())
	if !ok {
		return nil, invalid("idgestion %s: bad fechagestion %q", r.ActionID, r.ActionAt)
	}
	if !t.opts.ActionCutoff.IsZero() && !at.After(t.opts.ActionCutoff) {
		return nil, fmt.Errorf("%w: action at %s", common.ErrBeforeCutoff, at.Format(time.RFC3339))
	}
	return &models.Action{
		ActionID:   r.ActionID.String(),
		CreditID:   r.CreditID.String(),
		ActionAt:   at,
		Task:       r.Task.String(),
		ActionType: r.Action.String(),
		Note:       r.Note.String(),
		PartyName:  r.PartyName.String(),
	}, nil
}

type SourceInstallment struct {
	CompanyKey   string          `json:"idempresa"`
	CreditID     string          `json:"idcredito"`
	UpdatedOn    *string         `json:"fechaactualizacion"`
	Interest     decimal.Decimal `json:"saldointeres"`
	Arrears      decimal.Decimal `json:"saldomora"`
	Other        decimal.Decimal `json:"saldootros"`
	Fees         decimal.Decimal `json:"saldohonorarios"`
	Overdue      decimal.Decimal `json:"saldovencido"`
	DueToday     decimal.Decimal `json:"pagodia"`
	RegisteredOn *string         `json:"fecharegistro"`
}

func (t *Transformer) InstallmentToSource(i *models.Installment, companyKey string) *SourceInstallment {
	return &SourceInstallment{
		CompanyKey:   companyKey,
		CreditID:     i.CreditID,
		UpdatedOn:    FormatDate(i.SnapshotAt),
		Interest:     i.InterestBalance,
		Arrears:      i.ArrearsBalance,
		Other:        i.OtherBalance,
		Fees:         i.FeeBalance,
		Overdue:      i.OverdueBalance,
		DueToday:     i.DueToday,
		RegisteredOn: FormatDate(i.RegisteredAt),
	}
}

type SourceAction struct {
	CompanyKey   string  `json:"idempresa"`
	ActionID     string  `json:"idgestion"`
	CreditID     string  `json:"idcredito"`
	ActionOn     string  `json:"fechagestion"`
	Task         *string `json:"tarea"`
	Action       *string `json:"accion"`
	Note         *string `json:"gestion"`
	PartyName    *string `json:"nombretercero"`
	RegisteredOn *string `json:"fecharegistro"`
}

func (t *Transformer) ActionToSource(a *models.Action, companyKey string) *SourceAction {
	var registered *string
	if !a.RegisteredAt.IsZero() {
		registered = FormatDate(&a.RegisteredAt)
	}
	return &SourceAction{
		CompanyKey:   companyKey,
		ActionID:     a.ActionID,
		CreditID:     a.CreditID,
		ActionOn:     a.ActionAt.Format(DateLayout),
		Task:         opt(a.Task),
		Action:       opt(a.ActionType),
		Note:         opt(a.Note),
		PartyName:    opt(a.PartyName),
		RegisteredOn: registered,
	}
}
