package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	ClientID             string          `json:"client_id"`
	FirstName            string          `json:"first_name"`
	SecondName           string          `json:"second_name,omitempty"`
	FirstSurname         string          `json:"first_surname"`
	SecondSurname        string          `json:"second_surname,omitempty"`
	DocumentType         string          `json:"document_type,omitempty"`
	Phone                string          `json:"phone,omitempty"`
	Mobile               string          `json:"mobile,omitempty"`
	Email                string          `json:"email,omitempty"`
	BirthDate            *time.Time      `json:"birth_date,omitempty"`
	DocumentIssueDate    *time.Time      `json:"document_issue_date,omitempty"`
	DocumentIssuePlace   string          `json:"document_issue_place,omitempty"`
	MaritalStatus        string          `json:"marital_status,omitempty"`
	Gender               string          `json:"gender,omitempty"`
	EducationLevel       string          `json:"education_level,omitempty"`
	ResidenceCity        string          `json:"residence_city,omitempty"`
	ResidenceDepartment  string          `json:"residence_department,omitempty"`
	ResidenceAddress     string          `json:"residence_address,omitempty"`
	JobTitle             string          `json:"job_title,omitempty"`
	WorkCity             string          `json:"work_city,omitempty"`
	WorkDepartment       string          `json:"work_department,omitempty"`
	WorkAddress          string          `json:"work_address,omitempty"`
	WorkPhone            string          `json:"work_phone,omitempty"`
	Profession           string          `json:"profession,omitempty"`
	ContractType         string          `json:"contract_type,omitempty"`
	SocialStratum        string          `json:"social_stratum,omitempty"`
	HousingType          string          `json:"housing_type,omitempty"`
	Dependents           int             `json:"dependents"`
	MonthlyIncome        decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses      decimal.Decimal `json:"monthly_expenses"`
	PromissoryNoteNumber string          `json:"promissory_note_number,omitempty"`
	PromissoryNoteType   string          `json:"promissory_note_type,omitempty"`

	ExportStatus ExportStatus `json:"export_status"`
	Hash         string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FullName joins the up to four name parts with single spaces.
func (c Client) FullName() string {
	return strings.Join(strings.Fields(strings.Join([]string{c.FirstName, c.SecondName, c.FirstSurname, c.SecondSurname}, " ")), " ")
}

// Fingerprint hashes the mapped fields, ignoring bookkeeping columns.
func (c Client) Fingerprint() string {
	c.ExportStatus, c.Hash = "", ""
	c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
	return fingerprint(c)
}
