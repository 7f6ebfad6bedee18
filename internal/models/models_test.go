package models

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClient_FullName(t *testing.T) {
	c := Client{FirstName: "Ana", FirstSurname: "Rojas", SecondSurname: "Diaz"}
	assert.Equal(t, "Ana Rojas Diaz", c.FullName())

	c.SecondName = " Maria "
	assert.Equal(t, "Ana Maria Rojas Diaz", c.FullName())
}

func TestFingerprint_IgnoresBookkeeping(t *testing.T) {
	a := Client{ClientID: "1", FirstName: "Ana", MonthlyIncome: decimal.RequireFromString("100.50")}
	b := a
	b.ExportStatus = StatusExported
	b.Hash = "x"
	b.UpdatedAt = time.Now()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// 100.50 read back from NUMERIC as 100.5 must not look like a change
	b.MonthlyIncome = decimal.RequireFromString("100.5")
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.FirstName = "Ana Maria"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestInstallment_Total(t *testing.T) {
	i := Installment{
		InterestBalance: decimal.RequireFromString("10.10"),
		ArrearsBalance:  decimal.RequireFromString("2"),
		OtherBalance:    decimal.Zero,
		FeeBalance:      decimal.RequireFromString("0.90"),
		OverdueBalance:  decimal.RequireFromString("100"),
	}
	assert.True(t, i.Total().Equal(decimal.RequireFromString("113")))
}

func TestCredential_Expired(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	exp := now.Add(48 * time.Hour)

	assert.True(t, (&Credential{}).Expired(now, 0))
	assert.False(t, (&Credential{Token: "t", ExpiresAt: &exp}).Expired(now, 24*time.Hour))
	assert.True(t, (&Credential{Token: "t", ExpiresAt: &exp}).Expired(now, 48*time.Hour))
}

func TestCredential_LogValueRedacts(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	l.Info("cred", "credential", Credential{ServiceName: "source_api", Username: "bob", Password: "hunter2", Token: "tok"})

	out := buf.String()
	assert.Contains(t, out, "source_api")
	for _, secret := range []string{"bob", "hunter2", "tok"} {
		assert.False(t, strings.Contains(out, secret), "leaked %q in %s", secret, out)
	}
}
