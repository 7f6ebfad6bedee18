package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fincoval/creditsync/internal/jsonx"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/shopspring/decimal"
)

type sourceCredit struct {
	CompanyKey            jsonx.Text   `json:"idempresa"`
	ID                    jsonx.Text   `json:"idcredito"`
	ClientID              jsonx.Text   `json:"idcliente"`
	LegalRepresentativeID jsonx.Text   `json:"idrepresentantelegal"`
	CoDebtorID            jsonx.Text   `json:"idcodeudor"`
	DebtType              jsonx.Text   `json:"tipodeuda"`
	CreatedOn             jsonx.Text   `json:"fechacreacion"`
	FirstPaymentOn        jsonx.Text   `json:"fechaprimerpago"`
	TotalAmount           jsonx.Amount `json:"valortotal"`
	Periodicity           jsonx.Text   `json:"periodicidad"`
	InstallmentCount      jsonx.Amount `json:"numcuotas"`
	Notes                 jsonx.Text   `json:"observaciones"`
	IntermediaryID        jsonx.Text   `json:"idtercerointermediario"`
	Institution           jsonx.Text   `json:"institucion"`
	Program               jsonx.Text   `json:"programa"`
	ProgramPeriod         jsonx.Text   `json:"periodoprograma"`
	PenaltyAmount         jsonx.Amount `json:"valorpenalizacion"`
	PenaltyType           jsonx.Text   `json:"tipopenalizacion"`
	PenaltyPeriod         jsonx.Text   `json:"periodopenalizacion"`
	PromissoryNote        jsonx.Text   `json:"pagare"`
}

// CreditFromSource maps a Source credit. Every pulled credit is tagged with
// the source tag and the portfolio classification.
func (t *Transformer) CreditFromSource(raw json.RawMessage) (*models.Credit, error) {
	var s sourceCredit
	if err := decode(raw, &s); err != nil {
		return nil, err
	}
	if err := required(
		field("idcredito", s.ID.String()),
		field("idcliente", s.ClientID.String()),
	); err != nil {
		return nil, err
	}

	return &models.Credit{
		CreditID:              s.ID.String(),
		ClientID:              s.ClientID.String(),
		CoDebtorID:            s.CoDebtorID.String(),
		LegalRepresentativeID: s.LegalRepresentativeID.String(),
		CompanyKey:            or(s.CompanyKey.String(), t.opts.DefaultCompanyKey),
		Source:                t.opts.SourceTag,
		Classification:        ClassificationPortfolio,
		DebtType:              s.DebtType.String(),
		CreatedOn:             ParseDate(s.CreatedOn.String()),
		FirstPaymentOn:        ParseDate(s.FirstPaymentOn.String()),
		TotalAmount:           s.TotalAmount.Decimal,
		Periodicity:           s.Periodicity.String(),
		InstallmentCount:      int(s.InstallmentCount.IntPart()),
		Notes:                 s.Notes.String(),
		IntermediaryID:        s.IntermediaryID.String(),
		Institution:           s.Institution.String(),
		Program:               s.Program.String(),
		ProgramPeriod:         s.ProgramPeriod.String(),
		PenaltyAmount:         s.PenaltyAmount.Decimal,
		PenaltyType:           s.PenaltyType.String(),
		PenaltyPeriod:         s.PenaltyPeriod.String(),
		PromissoryNote:        s.PromissoryNote.String(),
	}, nil
}

type TargetCredit struct {
	CompanyKey string            `json:"idempresa"`
	DebtorID   string            `json:"codigodeudor"`
	CoDebtorID *string           `json:"codigocodeudor"`
	Credit     TargetCreditTerms `json:"credito"`
}

type TargetCreditTerms struct {
	DebtType       *string         `json:"tipoDeuda"`
	Classification *string         `json:"clasificacion"`
	Number         string          `json:"consecutivo"`
	CreatedOn      *string         `json:"fechacreacion"`
	FirstPaymentOn *string         `json:"fechaprimerpago"`
	TotalAmount    decimal.Decimal `json:"valortotal"`
	Periodicity    *string         `json:"periodicidad"`
	Installments   int             `json:"numcuotas"`
	Notes          *string         `json:"observaciones"`
	IntermediaryID *string         `json:"idTerceroIntermediario"`
	Institution    *string         `json:"insitucion"`
	Program        *string         `json:"programa"`
	ProgramPeriod  *string         `json:"periodoprograma"`
	PenaltyAmount  decimal.Decimal `json:"valorpenalizacion"`
	PenaltyType    *string         `json:"tipopenalizacion"`
	PenaltyPeriod  *string         `json:"periodopenalizacion"`
	PromissoryNote *string         `json:"pagare"`
}

// CreditToTarget builds one copy of the credit for companyKey. Credits from
// the source tag are reported as portfolio administration with a program
// period stamped from the clock.
func (t *Transformer) CreditToTarget(c *models.Credit, companyKey string) (*TargetCredit, error) {
	if err := required(
		field("credit_id", c.CreditID),
		field("client_id", c.ClientID),
	); err != nil {
		return nil, err
	}

	coDebtor := c.CoDebtorID
	if c.Source == sponsoredSource && strings.TrimSpace(c.LegalRepresentativeID) != "" {
		coDebtor = c.LegalRepresentativeID
	}

	debtType, period := c.DebtType, c.ProgramPeriod
	if t.opts.SourceTag != "" && c.Source == t.opts.SourceTag {
		now := t.opts.Now()
		debtType = PortfolioDebtType
		period = fmt.Sprintf("%s-%02d%02d", t.opts.SourceTag, int(now.Month()), now.Year()%100)
	}

	return &TargetCredit{
		CompanyKey: companyKey,
		DebtorID:   c.ClientID,
		CoDebtorID: opt(coDebtor),
		Credit: TargetCreditTerms{
			DebtType:       opt(debtType),
			Classification: opt(c.Classification),
			Number:         c.CreditID,
			CreatedOn:      FormatDate(c.CreatedOn),
			FirstPaymentOn: FormatDate(c.FirstPaymentOn),
			TotalAmount:    c.TotalAmount,
			Periodicity:    opt(c.Periodicity),
			Installments:   c.InstallmentCount,
			Notes:          opt(c.Notes),
			IntermediaryID: opt(c.IntermediaryID),
			Institution:    opt(c.Institution),
			Program:        opt(c.Program),
			ProgramPeriod:  opt(period),
			PenaltyAmount:  c.PenaltyAmount,
			PenaltyType:    opt(c.PenaltyType),
			PenaltyPeriod:  opt(c.PenaltyPeriod),
			PromissoryNote: opt(c.PromissoryNote),
		},
	}, nil
}
