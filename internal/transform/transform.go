// Package transform maps records between the Source System, the local store
// and the Target System. Functions here do no I/O.
package transform

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/shopspring/decimal"
)

const (
	ClassificationPortfolio = "ADMINCAR"
	PortfolioDebtType       = "Administracion de cartera"
	sponsoredSource         = "EDUFAST"
)

type Options struct {
	// SourceTag is stamped on every credit pulled from the Source System.
	SourceTag string
	// DefaultCompanyKey is used when a credit carries no company.
	DefaultCompanyKey string
	PaymentCutoff     time.Time
	ActionCutoff      time.Time
	Cities            *CityCatalog
	Now               func() time.Time
}

type Transformer struct {
	opts Options
}

func New(opts Options) *Transformer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cities == nil {
		opts.Cities = NewCityCatalog(nil)
	}
	return &Transformer{opts: opts}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrTransformValidation, fmt.Sprintf(format, args...))
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("decode: %v", err)
	}
	return nil
}

// required returns a validation error naming every blank field.
func required(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return invalid("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func field(name, value string) [2]string { return [2]string{name, value} }

// opt maps "" to nil so empty values serialise as JSON null.
func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orZero(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	return d.String()
}
