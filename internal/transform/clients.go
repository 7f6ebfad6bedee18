package transform

import (
	"encoding/json"
	"strconv"

	"github.com/fincoval/creditsync/internal/jsonx"
	"github.com/fincoval/creditsync/internal/models"
)

type sourceClient struct {
	ID                   jsonx.Text   `json:"idcliente"`
	FirstName            jsonx.Text   `json:"primernombre"`
	SecondName           jsonx.Text   `json:"segundonombre"`
	FirstSurname         jsonx.Text   `json:"primerapellido"`
	SecondSurname        jsonx.Text   `json:"segundopellido"`
	DocumentType         jsonx.Text   `json:"tipoid"`
	Phone                jsonx.Text   `json:"telefono"`
	Mobile               jsonx.Text   `json:"celular"`
	Email                jsonx.Text   `json:"correo"`
	BirthDate            jsonx.Text   `json:"fechanacimiento"`
	DocumentIssueDate    jsonx.Text   `json:"fechaexpdoc"`
	DocumentIssuePlace   jsonx.Text   `json:"lugarexpdoc"`
	MaritalStatus        jsonx.Text   `json:"estadocivil"`
	Gender               jsonx.Text   `json:"genero"`
	EducationLevel       jsonx.Text   `json:"niveleducativo"`
	ResidenceCity        jsonx.Text   `json:"ciudadresidencia"`
	ResidenceDepartment  jsonx.Text   `json:"departamentoresidencia"`
	ResidenceAddress     jsonx.Text   `json:"direccionresidencia"`
	JobTitle             jsonx.Text   `json:"cargo"`
	WorkCity             jsonx.Text   `json:"ciudadlaboral"`
	WorkDepartment       jsonx.Text   `json:"departamentolaboral"`
	WorkAddress          jsonx.Text   `json:"dirlaboral"`
	WorkPhone            jsonx.Text   `json:"telefonolaboral"`
	Profession           jsonx.Text   `json:"profesion"`
	ContractType         jsonx.Text   `json:"tipocontrato"`
	SocialStratum        jsonx.Text   `json:"estrato"`
	HousingType          jsonx.Text   `json:"tipovivienda"`
	Dependents           jsonx.Amount `json:"personascargo"`
	MonthlyIncome        jsonx.Amount `json:"ingresosmes"`
	MonthlyExpenses      jsonx.Amount `json:"gastosmes"`
	PromissoryNoteNumber jsonx.Text   `json:"numpagare"`
	PromissoryNoteType   jsonx.Text   `json:"tipopagare"`
}

// ClientFromSource maps a Source third party. Blank strings become empty
// (stored as NULL), unreadable dates become nil and missing numbers zero.
func (t *Transformer) ClientFromSource(raw json.RawMessage) (*models.Client, error) {
	var s sourceClient
	if err := decode(raw, &s); err != nil {
		return nil, err
	}
	if err := required(
		field("idcliente", s.ID.String()),
		field("primernombre", s.FirstName.String()),
		field("primerapellido", s.FirstSurname.String()),
	); err != nil {
		return nil, err
	}

	return &models.Client{
		ClientID:             s.ID.String(),
		FirstName:            s.FirstName.String(),
		SecondName:           s.SecondName.String(),
		FirstSurname:         s.FirstSurname.String(),
		SecondSurname:        s.SecondSurname.String(),
		DocumentType:         s.DocumentType.String(),
		Phone:                s.Phone.String(),
		Mobile:               s.Mobile.String(),
		Email:                s.Email.String(),
		BirthDate:            ParseDate(s.BirthDate.String()),
		DocumentIssueDate:    ParseDate(s.DocumentIssueDate.String()),
		DocumentIssuePlace:   s.DocumentIssuePlace.String(),
		MaritalStatus:        s.MaritalStatus.String(),
		Gender:               s.Gender.String(),
		EducationLevel:       s.EducationLevel.String(),
		ResidenceCity:        s.ResidenceCity.String(),
		ResidenceDepartment:  s.ResidenceDepartment.String(),
		ResidenceAddress:     s.ResidenceAddress.String(),
		JobTitle:             s.JobTitle.String(),
		WorkCity:             s.WorkCity.String(),
		WorkDepartment:       s.WorkDepartment.String(),
		WorkAddress:          s.WorkAddress.String(),
		WorkPhone:            s.WorkPhone.String(),
		Profession:           s.Profession.String(),
		ContractType:         s.ContractType.String(),
		SocialStratum:        s.SocialStratum.String(),
		HousingType:          s.HousingType.String(),
		Dependents:           int(s.Dependents.IntPart()),
		MonthlyIncome:        s.MonthlyIncome.Decimal,
		MonthlyExpenses:      s.MonthlyExpenses.Decimal,
		PromissoryNoteNumber: s.PromissoryNoteNumber.String(),
		PromissoryNoteType:   s.PromissoryNoteType.String(),
	}, nil
}

type TargetClient struct {
	Code          string             `json:"codigo"`
	FirstName     string             `json:"primernombre"`
	SecondName    *string            `json:"segundonombre"`
	FirstSurname  string             `json:"primerapellido"`
	SecondSurname *string            `json:"segundopellido"`
	FullName      string             `json:"nombreentero"`
	DocumentType  *string            `json:"tipoid"`
	ID            string             `json:"id"`
	Email         *string            `json:"correo"`
	BirthDate     *string            `json:"fechanacimientotxt"`
	IssueDate     *string            `json:"fechaexpdoctxt"`
	IssuePlace    string             `json:"lugarexpdoc"`
	Dynamic       TargetClientDetail `json:"dinamicos"`
}

type TargetClientDetail struct {
	JobTitle            string  `json:"cargo"`
	Mobile              *string `json:"celular"`
	WorkCity            string  `json:"ciudadlaboral"`
	WorkCityCode        *string `json:"codciudadlaboral"`
	ResidenceCity       *string `json:"ciudadresidencia"`
	ResidenceCityCode   *string `json:"codciudadresidencia"`
	WorkDepartment      string  `json:"departamentolaboral"`
	ResidenceDepartment *string `json:"departamentoresidencia"`
	ResidenceAddress    *string `json:"direccionresidencia"`
	WorkAddress         string  `json:"dirlaboral"`
	MaritalStatus       *string `json:"estadocivil"`
	Stratum             string  `json:"estrato"`
	MonthlyExpenses     string  `json:"gastosmes"`
	Gender              *string `json:"genero"`
	MonthlyIncome       string  `json:"ingresosmes"`
	EducationLevel      *string `json:"niveleducativo"`
	PromissoryNote      string  `json:"numpagare"`
	Dependents          string  `json:"personascargo"`
	Profession          string  `json:"profesion"`
	WorkPhone           string  `json:"telefonolaboral"`
	ResidencePhone      *string `json:"telefonoresidencia"`
	ContractType        string  `json:"tipocontrato"`
	PromissoryNoteType  string  `json:"tipopagare"`
	HousingType         string  `json:"tipovivienda"`
}

// ClientToTarget builds the Target payload. City names the catalog cannot
// resolve leave the code null and are returned as warnings.
func (t *Transformer) ClientToTarget(c *models.Client) (*TargetClient, []string, error) {
	if err := required(
		field("client_id", c.ClientID),
		field("first_name", c.FirstName),
		field("first_surname", c.FirstSurname),
	); err != nil {
		return nil, nil, err
	}

	var warnings []string
	cityCode := func(name string) *string {
		if name == "" {
			return nil
		}
		code, ok := t.opts.Cities.Lookup(name)
		if !ok {
			warnings = append(warnings, "unknown city "+strconv.Quote(name))
			return nil
		}
		return &code
	}

	dependents := "0"
	if c.Dependents > 0 {
		dependents = strconv.Itoa(c.Dependents)
	}

	return &TargetClient{
		Code:          c.ClientID,
		FirstName:     c.FirstName,
		SecondName:    opt(c.SecondName),
		FirstSurname:  c.FirstSurname,
		SecondSurname: opt(c.SecondSurname),
		FullName:      c.FullName(),
		DocumentType:  opt(c.DocumentType),
		ID:            c.ClientID,
		Email:         opt(c.Email),
		BirthDate:     FormatDate(c.BirthDate),
		IssueDate:     FormatDate(c.DocumentIssueDate),
		IssuePlace:    or(c.DocumentIssuePlace, "Desconocido"),
		Dynamic: TargetClientDetail{
			JobTitle:            or(c.JobTitle, "No especificado"),
			Mobile:              opt(c.Mobile),
			WorkCity:            or(c.WorkCity, "Desconocida"),
			WorkCityCode:        cityCode(c.WorkCity),
			ResidenceCity:       opt(c.ResidenceCity),
			ResidenceCityCode:   cityCode(c.ResidenceCity),
			WorkDepartment:      or(c.WorkDepartment, "Desconocido"),
			ResidenceDepartment: opt(c.ResidenceDepartment),
			ResidenceAddress:    opt(c.ResidenceAddress),
			WorkAddress:         or(c.WorkAddress, "Desconocida"),
			MaritalStatus:       opt(c.MaritalStatus),
			Stratum:             or(c.SocialStratum, "Desconocido"),
			MonthlyExpenses:     orZero(c.MonthlyExpenses),
			Gender:              opt(c.Gender),
			MonthlyIncome:       orZero(c.MonthlyIncome),
			EducationLevel:      opt(c.EducationLevel),
			PromissoryNote:      or(c.PromissoryNoteNumber, "0"),
			Dependents:          dependents,
			Profession:          or(c.Profession, "No especificada"),
			WorkPhone:           or(c.WorkPhone, "No especificado"),
			ResidencePhone:      opt(c.Phone),
			ContractType:        or(c.ContractType, "No especificado"),
			PromissoryNoteType:  or(c.PromissoryNoteType, "No especificado"),
			HousingType:         or(c.HousingType, "No especificada"),
		},
	}, warnings, nil
}
